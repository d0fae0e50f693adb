// Package middleware provides HTTP middleware for the cask API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/internal/telemetry"
	"github.com/marmos91/cask/pkg/auth"
	"github.com/marmos91/cask/pkg/store"
)

// Messages sent with 401 and 403 replies.
const (
	MsgInvalidToken  = "invalid or expired token"
	MsgAdminRequired = "admin access required"
)

type contextKey string

const (
	tokenContextKey     contextKey = "token"
	bootstrapContextKey contextKey = "bootstrap"
)

// TokenFromContext returns the authenticated token, or nil when the
// request went through no authentication middleware.
func TokenFromContext(ctx context.Context) *store.Token {
	token, ok := ctx.Value(tokenContextKey).(*store.Token)
	if !ok {
		return nil
	}
	return token
}

// IsBootstrap reports whether the request is the unauthenticated first
// token creation.
func IsBootstrap(ctx context.Context) bool {
	v, _ := ctx.Value(bootstrapContextKey).(bool)
	return v
}

// authError carries the status and message of a rejected request.
type authError struct {
	status  int
	message string
}

func (e *authError) Error() string { return e.message }

// authenticate resolves the bearer token of r against the store.
func authenticate(r *http.Request, tokens store.Store) (*store.Token, error) {
	secret, err := auth.ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		return nil, &authError{status: http.StatusUnauthorized, message: err.Error()}
	}

	token, err := tokens.FindActiveToken(r.Context(), auth.HashToken(secret), time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, &authError{status: http.StatusUnauthorized, message: MsgInvalidToken}
		}
		return nil, err
	}
	return token, nil
}

// withToken stores token in the request context and tags the request's
// log context and span with its id.
func withToken(r *http.Request, token *store.Token) *http.Request {
	ctx := context.WithValue(r.Context(), tokenContextKey, token)
	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithToken(token.ID))
	}
	telemetry.SetAttributes(ctx, telemetry.TokenID(token.ID))
	return r.WithContext(ctx)
}

// rejectAuth writes the error reply for a failed authentication.
func rejectAuth(w http.ResponseWriter, r *http.Request, err error) {
	var aerr *authError
	if errors.As(err, &aerr) {
		logger.DebugCtx(r.Context(), "Request rejected", logger.KeyStatus, aerr.status, logger.KeyError, aerr.message)
		writeError(w, aerr.status, aerr.message)
		return
	}
	logger.ErrorCtx(r.Context(), "Token lookup failed", logger.KeyError, err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// RequireToken rejects requests without a valid, unexpired bearer token.
func RequireToken(tokens store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := authenticate(r, tokens)
			if err != nil {
				rejectAuth(w, r, err)
				return
			}
			next.ServeHTTP(w, withToken(r, token))
		})
	}
}

// RequireAdmin rejects requests whose token is not an admin token.
func RequireAdmin(tokens store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := authenticate(r, tokens)
			if err != nil {
				rejectAuth(w, r, err)
				return
			}
			if !token.IsAdmin {
				writeError(w, http.StatusForbidden, MsgAdminRequired)
				return
			}
			next.ServeHTTP(w, withToken(r, token))
		})
	}
}

// AdminOrBootstrap lets the request through unauthenticated while no token
// exists yet, and requires an admin token afterwards.
func AdminOrBootstrap(tokens store.Store) func(http.Handler) http.Handler {
	requireAdmin := RequireAdmin(tokens)
	return func(next http.Handler) http.Handler {
		admin := requireAdmin(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, err := tokens.CountTokens(r.Context())
			if err != nil {
				rejectAuth(w, r, err)
				return
			}
			if count == 0 {
				logger.InfoCtx(r.Context(), "No tokens exist, accepting bootstrap request")
				ctx := context.WithValue(r.Context(), bootstrapContextKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			admin.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
