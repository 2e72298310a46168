// Package argocd triggers application syncs through the Argo CD API.
package argocd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the Argo CD sync endpoint for named applications.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client for the given API base URL and bearer token.
// Either value may be empty; Configured reports whether the client is usable.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether both endpoint and credentials are present.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

// syncRequest is the body Argo CD expects for a sync trigger.
type syncRequest struct {
	Prune  bool `json:"prune"`
	DryRun bool `json:"dryRun"`
}

// Sync requests a sync of the named application. Any non-2xx response is an
// error carrying the response body.
func (c *Client) Sync(ctx context.Context, app string, dryRun bool) error {
	body, err := json.Marshal(syncRequest{Prune: false, DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("marshalling sync request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/applications/%s/sync", c.baseURL, app)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting sync for %s: %w", app, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("argocd sync %s: status %d: %s", app, resp.StatusCode, string(respBody))
	}
	return nil
}
