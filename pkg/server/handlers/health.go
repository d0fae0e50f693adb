package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/store"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated:
//   - Liveness: is the server process answering?
//   - Readiness: are the database and blob backends reachable?
type HealthHandler struct {
	store store.Store
	blobs blob.Store
}

// NewHealthHandler creates a new health handler. Either backend may be nil,
// in which case readiness reports it unhealthy.
func NewHealthHandler(s store.Store, blobs blob.Store) *HealthHandler {
	return &HealthHandler{store: s, blobs: blobs}
}

// Liveness handles GET /health with a plain "ok".
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ComponentHealth is the health of one backend.
type ComponentHealth struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// ReadinessResponse is the body of GET /health/ready.
type ReadinessResponse struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Blob     ComponentHealth `json:"blob"`
}

// Readiness handles GET /health/ready. Returns 503 when a backend fails
// its health check.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := ReadinessResponse{Status: "healthy"}

	if h.store == nil {
		resp.Database = ComponentHealth{Status: "unhealthy", Error: "database not initialized"}
	} else {
		resp.Database = checkComponent(ctx, h.store.Healthcheck)
	}
	if h.blobs == nil {
		resp.Blob = ComponentHealth{Status: "unhealthy", Error: "blob store not initialized"}
	} else {
		resp.Blob = checkComponent(ctx, h.blobs.HealthCheck)
	}

	status := http.StatusOK
	if resp.Database.Status != "healthy" || resp.Blob.Status != "healthy" {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func checkComponent(ctx context.Context, check func(context.Context) error) ComponentHealth {
	start := time.Now()
	err := check(ctx)
	health := ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
	}
	return health
}
