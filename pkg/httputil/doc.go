// Package httputil provides retry helpers for repository transfers.
//
// [Retry] wraps a transfer with automatic retry for transient failures
// (network errors, 5xx responses). Only errors wrapped with
// [RetryableError] are retried; a 404 from a repository is final and must
// not be retried.
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return download(ctx, url)
//	})
//
// Default settings used by [RetryWithBackoff]:
//
//   - Max attempts: 3
//   - Base backoff: 1 second, doubling
package httputil
