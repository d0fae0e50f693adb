// Package metrics holds the Prometheus collectors exported by the cask
// server.
//
// All collectors live on a private registry. A nil *Metrics is valid and
// records nothing, so callers pass nil when metrics are disabled:
//
//	var m *metrics.Metrics
//	if cfg.Metrics.Enabled {
//		m = metrics.New()
//	}
//	m.ArtifactDownloaded() // no-op when m is nil
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cask"

// Metrics is the set of cask collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	uploads     prometheus.Counter
	uploadBytes prometheus.Counter
	downloads   prometheus.Counter

	blobOperations *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets: []float64{
					0.005, // 5ms - health checks, listings
					0.025,
					0.1,
					0.5,
					1,  // 1s - small uploads
					5,  // 5s
					30, // 30s - large transfers
					120,
				},
			},
			[]string{"method", "route"},
		),
		uploads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_uploads_total",
			Help:      "Total number of artifacts uploaded",
		}),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_upload_bytes_total",
			Help:      "Total bytes of artifact content uploaded",
		}),
		downloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_downloads_total",
			Help:      "Total number of artifact downloads",
		}),
		blobOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blob_operations_total",
				Help:      "Total number of blob storage operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
	}
}

// Registry returns the private registry, or nil for a nil Metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTPRequest records one served request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ArtifactUploaded records a stored upload of size bytes.
func (m *Metrics) ArtifactUploaded(size int64) {
	if m == nil {
		return
	}
	m.uploads.Inc()
	if size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

// ArtifactDownloaded records one served download.
func (m *Metrics) ArtifactDownloaded() {
	if m == nil {
		return
	}
	m.downloads.Inc()
}

// BlobOperation records a blob backend call. status is "ok" or "error".
func (m *Metrics) BlobOperation(backend, operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.blobOperations.WithLabelValues(backend, operation, status).Inc()
}
