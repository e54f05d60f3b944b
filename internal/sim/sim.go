// Package sim talks to the external simulation engine. The engine is
// stateless between calls: every request replays the whole game from tick
// zero with the accumulated recommendations and returns a full snapshot.
package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"evadvisor/internal/model"
)

// Simulator runs one game submission and returns the resulting snapshot.
type Simulator interface {
	Play(ctx context.Context, in model.GameInput) (model.Snapshot, error)
}

// Client is an HTTP Simulator. Engines rate-limit their game endpoint, so
// requests pass through a local limiter before going out.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the x-api-key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a Simulator for the engine at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Play submits the game input to POST {baseURL}/api/game and decodes the
// snapshot. Any transport error, non-2xx status, or undecodable body is
// returned as an error; the caller halts the run and keeps prior results.
func (c *Client) Play(ctx context.Context, in model.GameInput) (model.Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("encoding game input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/game", bytes.NewReader(body))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("building game request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("calling simulation engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return model.Snapshot{}, fmt.Errorf("simulation engine returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var snap model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
