package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxFeedBytes = 25 * 1024 * 1024

// Client fetches raw realtime feed bytes over HTTP, or from a local file
// path, which keeps replayed feed captures usable in development.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given feed URL or file path. The
// timeout is a per-request safety net; callers bound each fetch with a
// context as well, and the stricter of the two wins.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the raw feed bytes. Cancellation of ctx aborts an
// in-flight request promptly.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(c.url, "http://") && !strings.HasPrefix(c.url, "https://") {
		return os.ReadFile(c.url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-protobuf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}
	if len(body) > maxFeedBytes {
		return nil, fmt.Errorf("feed response exceeds %d bytes", maxFeedBytes)
	}
	return body, nil
}
