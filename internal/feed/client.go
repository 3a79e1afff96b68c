package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultMaxBodyBytes caps the size of a portal response.
	DefaultMaxBodyBytes int64 = 10 << 20
	// DefaultUserAgent is sent with every portal request.
	DefaultUserAgent = "jobfeed-api/1.0 (+job aggregation)"
)

// Client performs the HTTP retrieval shared by all adapters.
// Deadlines come from the caller's context.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(fc *Client) {
		fc.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(fc *Client) {
		fc.userAgent = ua
	}
}

// WithMaxBodyBytes sets the response size limit. Non-positive values are ignored.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(fc *Client) {
		if n > 0 {
			fc.maxBodyBytes = n
		}
	}
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get retrieves url and returns the body.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimedOut, err)
		}
		return nil, fmt.Errorf("%w: http GET: %v", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: portal returned %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: read body: %v", ErrTimedOut, err)
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrFetch, c.maxBodyBytes)
	}

	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
