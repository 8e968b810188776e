package integrations

import (
	"errors"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single repository request, including reading the
// response body.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a repository does not hold the requested file.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates the HTTP client used for repository transfers.
// Timeouts are applied per request through the context instead of on the
// client, so that long downloads are bounded by the same deadline as
// short metadata requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: http.DefaultTransport}
}
