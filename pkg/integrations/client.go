package integrations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/aarunpack/pkg/httputil"
	"github.com/matzehuels/aarunpack/pkg/observability"
)

// Client provides shared HTTP functionality for repository transfers.
// It handles per-request timeouts, retry logic, and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http     *http.Client
	headers  map[string]string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

// NewClient creates a Client with the given per-request timeout and default
// headers. A non-positive timeout selects [DefaultTimeout]. Pass nil for
// headers if no default headers are needed.
func NewClient(timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:     NewHTTPClient(),
		headers:  headers,
		timeout:  timeout,
		attempts: 3,
		backoff:  time.Second,
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// GetText performs an HTTP GET request and returns the response body as a string.
// Used for small sidecar files such as checksums.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	var text string
	err := c.do(ctx, rawURL, func(body io.Reader) error {
		data, err := io.ReadAll(body)
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		text = string(data)
		return nil
	})
	return text, err
}

// Download fetches rawURL into dest. The body is written to a temporary
// file in the destination directory and renamed into place, so dest is
// either absent or complete. Each retry starts from an empty file.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return c.do(ctx, rawURL, func(body io.Reader) error {
		tmp, err := os.CreateTemp(dir, ".download-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, body); err != nil {
			tmp.Close()
			return httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), dest)
	})
}

// do issues a GET with retry. consume runs inside the per-request
// deadline and must fully read the body.
func (c *Client) do(ctx context.Context, rawURL string, consume func(io.Reader) error) error {
	return httputil.Retry(ctx, c.attempts, c.backoff, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		body, err := c.doRequest(reqCtx, rawURL)
		if err != nil {
			return err
		}
		defer body.Close()
		return consume(body)
	})
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := splitURL(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
