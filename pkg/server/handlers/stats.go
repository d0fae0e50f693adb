package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/pkg/store"
)

// StatsResponse is the body of both stats endpoints.
type StatsResponse struct {
	Downloads int64 `json:"downloads"`
}

// StatsHandler serves download counts.
type StatsHandler struct {
	store store.Store
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(s store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

// Version handles GET /v1/artifacts/{name}/{version}/stats. Unknown
// versions report zero downloads.
func (h *StatsHandler) Version(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	n, err := h.store.VersionDownloads(r.Context(), name, version)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to count downloads",
			logger.KeyArtifact, name, logger.KeyVersion, version, logger.KeyError, err)
		InternalServerError(w, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Downloads: n})
}

// Artifact handles GET /v1/artifacts/{name}/stats.
func (h *StatsHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	n, err := h.store.ArtifactDownloads(r.Context(), name)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to count downloads", logger.KeyArtifact, name, logger.KeyError, err)
		InternalServerError(w, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Downloads: n})
}
