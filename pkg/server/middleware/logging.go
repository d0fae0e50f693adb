package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/internal/telemetry"
	"github.com/marmos91/cask/pkg/metrics"
)

// RequestLogger attaches a LogContext to the request and logs one line
// when it completes: debug for health probes, info otherwise.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lc := logger.NewLogContext(chimw.GetReqID(ctx), remoteIP(r)).
			WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		ctx = logger.WithContext(ctx, lc)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		log := logger.InfoCtx
		if r.URL.Path == "/health" || r.URL.Path == "/health/ready" {
			log = logger.DebugCtx
		}
		log(ctx, "Request completed",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, statusOf(ww),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, lc.DurationMs(),
		)
	})
}

// Metrics records request counts and latencies by route pattern. m may
// be nil.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.ObserveHTTPRequest(r.Method, route, statusOf(ww), time.Since(start))
		})
	}
}

func statusOf(ww chimw.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
