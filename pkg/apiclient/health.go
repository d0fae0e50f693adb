package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Health queries /health. It returns nil only when the server answers 200
// with "ok".
func (c *Client) Health(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if got := strings.TrimSpace(string(body)); got != "ok" {
		return fmt.Errorf("unexpected health response %q", got)
	}
	return nil
}

// Artifact is one stored artifact as returned by the API.
type Artifact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Filename  string    `json:"filename"`
	SHA256    string    `json:"sha256"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ListArtifacts returns every artifact.
func (c *Client) ListArtifacts(ctx context.Context) ([]Artifact, error) {
	var artifacts []Artifact
	if err := c.getJSON(ctx, "/v1/artifacts", &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}
