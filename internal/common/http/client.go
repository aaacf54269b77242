// internal/common/http/client.go

// Package http wraps the stdlib client with a shared timeout for the
// HTTP-based message providers (WhatsApp Cloud API, Telegram Bot API).
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is the outbound HTTP client shared by the channel adapters that
// talk to REST providers. One timeout covers dial, TLS and body read.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
