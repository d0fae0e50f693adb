package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/pkg/store"
)

// MetadataHandler serves the custom key/values of an artifact version.
type MetadataHandler struct {
	store store.Store
}

// NewMetadataHandler creates a metadata handler.
func NewMetadataHandler(s store.Store) *MetadataHandler {
	return &MetadataHandler{store: s}
}

// Get handles GET /v1/artifacts/{name}/{version}/meta.
//
// The reply is a flat object: sha256 and created_at followed by the custom
// keys. A custom key named like a built-in field does not replace it.
func (h *MetadataHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	artifact, ok := lookupArtifact(w, r, h.store, name, version)
	if !ok {
		return
	}

	custom, err := h.store.GetMetadata(r.Context(), artifact.ID)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to get metadata", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
		InternalServerError(w, "failed to get metadata")
		return
	}

	resp := make(map[string]any, len(custom)+2)
	for k, v := range custom {
		resp[k] = v
	}
	resp["sha256"] = artifact.SHA256
	resp["created_at"] = artifact.CreatedAt.UTC().Format(time.RFC3339)

	writeJSON(w, http.StatusOK, resp)
}

// Put handles PUT /v1/artifacts/{name}/{version}/meta with a JSON object
// of string values. Existing keys are replaced, others are left alone.
func (h *MetadataHandler) Put(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	artifact, ok := lookupArtifact(w, r, h.store, name, version)
	if !ok {
		return
	}

	var values map[string]string
	if !decodeJSONBody(w, r, &values) {
		return
	}

	if err := h.store.SetMetadata(r.Context(), artifact.ID, values); err != nil {
		logger.ErrorCtx(r.Context(), "Failed to set metadata", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
		InternalServerError(w, "failed to set metadata")
		return
	}

	logger.DebugCtx(r.Context(), "Metadata updated",
		logger.KeyArtifact, name, logger.KeyVersion, version, "keys", len(values))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteKey handles DELETE /v1/artifacts/{name}/{version}/meta/{key}.
// Deleting an absent key succeeds.
func (h *MetadataHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")
	key := chi.URLParam(r, "key")

	artifact, ok := lookupArtifact(w, r, h.store, name, version)
	if !ok {
		return
	}

	if err := h.store.DeleteMetadata(r.Context(), artifact.ID, key); err != nil {
		logger.ErrorCtx(r.Context(), "Failed to delete metadata",
			logger.KeyArtifactID, artifact.ID, logger.KeyKey, key, logger.KeyError, err)
		InternalServerError(w, "failed to delete metadata")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
