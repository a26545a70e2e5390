// Package token fetches join credentials from the token endpoint.
//
// The endpoint mints short-lived join grants scoped to a single room.
// A credential is fetched exactly once at startup; there is no refresh.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable is returned when the token endpoint cannot supply a
// credential: unreachable, non-success status, or a response without a
// token field. Startup cannot proceed past this error.
var ErrUnavailable = errors.New("credential unavailable")

// Credential is a join grant for one identity in one room.
// Immutable once fetched; the token string is opaque to the agent.
type Credential struct {
	Identity string
	Room     string
	Token    string
}

// Client talks to the token endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a token client for the given endpoint base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch requests a join credential for identity in room.
func (c *Client) Fetch(ctx context.Context, identity, room string) (Credential, error) {
	if identity == "" {
		return Credential{}, fmt.Errorf("%w: identity must not be empty", ErrUnavailable)
	}

	q := url.Values{}
	q.Set("identity", identity)
	q.Set("room", room)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/token?"+q.Encode(), nil)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Credential{}, fmt.Errorf("%w: token endpoint returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Credential{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.Token == "" {
		return Credential{}, fmt.Errorf("%w: no token in response", ErrUnavailable)
	}

	return Credential{Identity: identity, Room: room, Token: body.Token}, nil
}
