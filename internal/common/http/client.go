// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// Client wraps a pooled http.Client for outbound service calls.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a client with a shared keep-alive transport. A zero
// timeout leaves deadlines to the request context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
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

// Standard exposes the underlying client for code that takes an *http.Client.
func (c *Client) Standard() *http.Client {
	return c.httpClient
}
