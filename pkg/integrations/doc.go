// Package integrations provides the HTTP transport used to talk to remote
// artifact repositories.
//
// # Overview
//
// [Client] wraps [net/http] with the behavior every repository transfer
// needs:
//
//   - a bounded per-request timeout that also covers reading the body
//   - retry with exponential backoff for network errors, 429 and 5xx
//     (see [httputil.Retry])
//   - [ErrNotFound] for 404/410, which is final and never retried
//   - HTTP observability hooks (see [observability.HTTPHooks])
//
// Repository-specific logic lives in subpackages:
//
//   - [maven]: Maven-layout repositories and the local repository
//
// # Downloads
//
// [Client.Download] streams a body into a temporary file next to the
// destination and renames it into place, so concurrent readers see either
// nothing or the complete file.
//
// [maven]: github.com/matzehuels/aarunpack/pkg/integrations/maven
// [httputil.Retry]: github.com/matzehuels/aarunpack/pkg/httputil.Retry
// [observability.HTTPHooks]: github.com/matzehuels/aarunpack/pkg/observability.HTTPHooks
package integrations
