// Package mem0 implements the memory Store against the hosted mem0 API.
package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikku45/roomrelay/memory"
)

const defaultBaseURL = "https://api.mem0.ai"

// Client talks to the hosted mem0 memory service.
type Client struct {
	baseURL   string
	apiKey    string
	orgID     string
	projectID string
	http      *http.Client
}

// Config configures the mem0 client.
type Config struct {
	// APIKey authenticates against the service. Required.
	APIKey string

	// OrgID and ProjectID scope requests when the account uses them.
	OrgID     string
	ProjectID string

	// BaseURL overrides the hosted API endpoint (used in tests).
	BaseURL string
}

// New creates a mem0-backed store.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mem0: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		orgID:     cfg.OrgID,
		projectID: cfg.ProjectID,
		http:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type searchRequest struct {
	Query     string            `json:"query"`
	Filters   map[string]string `json:"filters"`
	Limit     int               `json:"limit,omitempty"`
	OrgID     string            `json:"org_id,omitempty"`
	ProjectID string            `json:"project_id,omitempty"`
}

type addRequest struct {
	Messages  []memory.Message `json:"messages"`
	UserID    string           `json:"user_id"`
	OrgID     string           `json:"org_id,omitempty"`
	ProjectID string           `json:"project_id,omitempty"`
}

// Search runs a semantic search filtered to userID and decodes each hit
// through the tagged record parse.
func (c *Client) Search(ctx context.Context, userID string, query string, limit int) ([]memory.Record, error) {
	body := searchRequest{
		Query:     query,
		Filters:   map[string]string{"user_id": userID},
		Limit:     limit,
		OrgID:     c.orgID,
		ProjectID: c.projectID,
	}

	var hits []json.RawMessage
	if err := c.post(ctx, "/v2/memories/search/", body, &hits); err != nil {
		return nil, fmt.Errorf("mem0 search: %w", err)
	}

	records := make([]memory.Record, 0, len(hits))
	for _, hit := range hits {
		records = append(records, memory.ParseRecord(hit))
	}
	return records, nil
}

// Add appends messages as facts owned by userID.
func (c *Client) Add(ctx context.Context, userID string, messages []memory.Message) error {
	body := addRequest{
		Messages:  messages,
		UserID:    userID,
		OrgID:     c.orgID,
		ProjectID: c.projectID,
	}
	if err := c.post(ctx, "/v1/memories/", body, nil); err != nil {
		return fmt.Errorf("mem0 add: %w", err)
	}
	return nil
}

// Close releases resources. The hosted client holds none.
func (c *Client) Close() error { return nil }

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
