package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/pkg/auth"
	"github.com/marmos91/cask/pkg/server/middleware"
	"github.com/marmos91/cask/pkg/store"
)

// TokenHandler manages API tokens.
type TokenHandler struct {
	store    store.Store
	validate *validator.Validate
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(s store.Store) *TokenHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.Split(field.Tag.Get("json"), ",")[0]
	})
	return &TokenHandler{store: s, validate: v}
}

// CreateTokenRequest is the body of POST /v1/tokens.
type CreateTokenRequest struct {
	Label   string `json:"label" validate:"required"`
	IsAdmin bool   `json:"is_admin"`

	// ExpiresAt is an RFC 3339 timestamp; empty means the token never expires.
	ExpiresAt string `json:"expires_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// CreateTokenResponse carries the only copy of the token secret.
type CreateTokenResponse struct {
	ID      string `json:"id"`
	Token   string `json:"token"`
	Label   string `json:"label"`
	IsAdmin bool   `json:"is_admin"`
}

// Create handles POST /v1/tokens. The first token ever created needs no
// authentication and is always an admin token.
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTokenRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		BadRequest(w, validationMessage(err))
		return
	}

	token := &store.Token{
		Label:     req.Label,
		IsAdmin:   req.IsAdmin || middleware.IsBootstrap(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			BadRequest(w, "invalid expires_at: expected RFC 3339 timestamp")
			return
		}
		expires = expires.UTC()
		token.ExpiresAt = &expires
	}

	secret := auth.GenerateToken()
	token.TokenHash = auth.HashToken(secret)

	id, err := h.store.CreateToken(ctx, token)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to create token", logger.KeyError, err)
		InternalServerError(w, "failed to create token")
		return
	}

	logger.InfoCtx(ctx, "Token created",
		logger.KeyTokenID, id, "label", token.Label, "admin", token.IsAdmin)

	writeJSON(w, http.StatusCreated, CreateTokenResponse{
		ID:      id,
		Token:   secret,
		Label:   token.Label,
		IsAdmin: token.IsAdmin,
	})
}

// List handles GET /v1/tokens, newest first. Secrets are never returned.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.store.ListTokens(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list tokens", logger.KeyError, err)
		InternalServerError(w, "failed to list tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// Revoke handles DELETE /v1/tokens/{id}.
func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteToken(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			NotFound(w, "token not found")
			return
		}
		logger.ErrorCtx(r.Context(), "Failed to revoke token", logger.KeyTokenID, id, logger.KeyError, err)
		InternalServerError(w, "failed to revoke token")
		return
	}

	logger.InfoCtx(r.Context(), "Token revoked", logger.KeyTokenID, id)
	w.WriteHeader(http.StatusNoContent)
}

// validationMessage turns the first failed field into a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		return "invalid " + fe.Field() + ": expected RFC 3339 timestamp"
	}
	return "invalid " + fe.Field()
}
