// Package auth generates and verifies cask API tokens.
//
// A token secret has the form "cask_<uuid>". It is shown to the operator
// once; only its SHA-256 hex digest is persisted.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// TokenPrefix starts every token secret.
const TokenPrefix = "cask_"

const bearerScheme = "Bearer "

// Errors returned by ExtractBearer. Their text is sent to clients as is.
var (
	ErrMissingHeader = errors.New("missing authorization header")
	ErrInvalidScheme = errors.New("invalid authorization scheme")
)

// GenerateToken returns a new random token secret.
func GenerateToken() string {
	return TokenPrefix + uuid.New().String()
}

// HashToken returns the lowercase hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ExtractBearer returns the credential from an Authorization header value.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	token, ok := strings.CutPrefix(header, bearerScheme)
	if !ok {
		return "", ErrInvalidScheme
	}
	return token, nil
}
