package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/internal/telemetry"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/bufpool"
	"github.com/marmos91/cask/pkg/metrics"
	"github.com/marmos91/cask/pkg/store"
)

// ArtifactHandler serves artifact listing, upload, download and delete.
type ArtifactHandler struct {
	store         store.Store
	blobs         blob.Store
	metrics       *metrics.Metrics
	maxUploadSize int64
}

// NewArtifactHandler creates an artifact handler. m may be nil.
func NewArtifactHandler(s store.Store, blobs blob.Store, m *metrics.Metrics, maxUploadSize int64) *ArtifactHandler {
	return &ArtifactHandler{
		store:         s,
		blobs:         blobs,
		metrics:       m,
		maxUploadSize: maxUploadSize,
	}
}

// List handles GET /v1/artifacts.
func (h *ArtifactHandler) List(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.store.ListArtifacts(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list artifacts", logger.KeyError, err)
		InternalServerError(w, "failed to list artifacts")
		return
	}
	writeJSON(w, http.StatusOK, artifacts)
}

// ListVersions handles GET /v1/artifacts/{name}.
func (h *ArtifactHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	artifacts, err := h.store.ListVersions(r.Context(), name)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list versions", logger.KeyArtifact, name, logger.KeyError, err)
		InternalServerError(w, "failed to list versions")
		return
	}
	writeJSON(w, http.StatusOK, artifacts)
}

// Upload handles PUT /v1/artifacts/{name}/{version}?filename=.
//
// The body is streamed into the blob store while its SHA-256 is computed.
// The row is inserted only after the blob is fully written; if the insert
// fails the blob is removed again.
func (h *ArtifactHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	if r.ContentLength > h.maxUploadSize {
		PayloadTooLarge(w, fmt.Sprintf("upload size %d exceeds maximum %d", r.ContentLength, h.maxUploadSize))
		return
	}

	exists, err := h.store.ArtifactExists(ctx, name, version)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to check artifact", logger.KeyArtifact, name, logger.KeyVersion, version, logger.KeyError, err)
		InternalServerError(w, "failed to store artifact")
		return
	}
	if exists {
		Conflict(w, duplicateMessage(name, version))
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = name + "-" + version
	}

	id := uuid.New().String()
	hasher := sha256.New()
	body := &countingReader{r: io.TeeReader(http.MaxBytesReader(w, r.Body, h.maxUploadSize), hasher)}

	if err := h.blobs.Put(ctx, id, body); err != nil {
		h.discardBlob(ctx, id)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			PayloadTooLarge(w, fmt.Sprintf("upload size exceeds maximum %d", h.maxUploadSize))
			return
		}
		logger.ErrorCtx(ctx, "Failed to write blob", logger.KeyArtifactID, id, logger.KeyError, err)
		InternalServerError(w, "failed to store artifact")
		return
	}

	artifact := &store.Artifact{
		ID:        id,
		Name:      name,
		Version:   version,
		Filename:  filename,
		SHA256:    hex.EncodeToString(hasher.Sum(nil)),
		Size:      body.n,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := h.store.CreateArtifact(ctx, artifact); err != nil {
		h.discardBlob(ctx, id)

		if errors.Is(err, store.ErrDuplicateArtifact) {
			Conflict(w, duplicateMessage(name, version))
			return
		}
		logger.ErrorCtx(ctx, "Failed to insert artifact", logger.KeyArtifactID, id, logger.KeyError, err)
		InternalServerError(w, "failed to store artifact")
		return
	}

	h.metrics.ArtifactUploaded(artifact.Size)
	telemetry.SetAttributes(ctx,
		telemetry.ArtifactName(name),
		telemetry.ArtifactVersion(version),
		telemetry.ArtifactID(id),
		telemetry.ArtifactSize(artifact.Size),
	)
	logger.InfoCtx(ctx, "Artifact uploaded",
		logger.KeyArtifact, name,
		logger.KeyVersion, version,
		logger.KeyArtifactID, id,
		logger.KeySize, artifact.Size,
		logger.KeySHA256, artifact.SHA256,
	)

	writeJSON(w, http.StatusCreated, artifact)
}

// Download handles GET /v1/artifacts/{name}/{version}.
func (h *ArtifactHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	artifact, ok := lookupArtifact(w, r, h.store, name, version)
	if !ok {
		return
	}

	content, err := h.blobs.Get(ctx, artifact.ID)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to open blob", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
		InternalServerError(w, "failed to read artifact")
		return
	}
	defer func() { _ = content.Close() }()

	// Statistics are best effort; a failed insert never fails the download.
	if err := h.store.RecordDownload(ctx, artifact.ID, clientIP(r)); err != nil {
		logger.WarnCtx(ctx, "Failed to record download", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := bufpool.Copy(w, content); err != nil {
		logger.WarnCtx(ctx, "Download interrupted", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
		return
	}
	h.metrics.ArtifactDownloaded()
}

// Delete handles DELETE /v1/artifacts/{name}/{version}.
func (h *ArtifactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	artifact, ok := lookupArtifact(w, r, h.store, name, version)
	if !ok {
		return
	}

	if err := h.store.DeleteArtifact(ctx, artifact.ID); err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			NotFound(w, notFoundMessage(name, version))
			return
		}
		logger.ErrorCtx(ctx, "Failed to delete artifact", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
		InternalServerError(w, "failed to delete artifact")
		return
	}

	if err := h.blobs.Delete(ctx, artifact.ID); err != nil {
		logger.ErrorCtx(ctx, "Failed to delete blob", logger.KeyArtifactID, artifact.ID, logger.KeyError, err)
		InternalServerError(w, "failed to delete artifact")
		return
	}

	logger.InfoCtx(ctx, "Artifact deleted", logger.KeyArtifact, name, logger.KeyVersion, version)
	w.WriteHeader(http.StatusNoContent)
}

// discardBlob removes a blob written by a failed upload.
func (h *ArtifactHandler) discardBlob(ctx context.Context, id string) {
	if err := h.blobs.Delete(context.WithoutCancel(ctx), id); err != nil {
		logger.WarnCtx(ctx, "Failed to remove orphaned blob", logger.KeyArtifactID, id, logger.KeyError, err)
	}
}

// lookupArtifact fetches name/version, writing a 404 or 500 when it cannot.
func lookupArtifact(w http.ResponseWriter, r *http.Request, s store.Store, name, version string) (*store.Artifact, bool) {
	artifact, err := s.GetArtifact(r.Context(), name, version)
	if err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			NotFound(w, notFoundMessage(name, version))
			return nil, false
		}
		logger.ErrorCtx(r.Context(), "Failed to get artifact",
			logger.KeyArtifact, name, logger.KeyVersion, version, logger.KeyError, err)
		InternalServerError(w, "failed to get artifact")
		return nil, false
	}
	return artifact, true
}

func notFoundMessage(name, version string) string {
	return fmt.Sprintf("artifact %s/%s not found", name, version)
}

func duplicateMessage(name, version string) string {
	return fmt.Sprintf("artifact %s/%s already exists", name, version)
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already replaced it with X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
