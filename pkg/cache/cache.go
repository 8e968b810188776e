// Package cache provides the small key/value cache used to remember failed
// sources lookups between runs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for build farms, via go-redis
//   - [NullCache]: never stores anything
//
// # Keys
//
// Keys are produced by a [Keyer] so that callers never concatenate strings
// themselves. A [ScopedKeyer] adds a prefix, which keeps several projects
// apart when they share one Redis instance.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// CompanionKey identifies a sources lookup for one coordinate against
	// one ordered list of repository URLs.
	CompanionKey(coordinate string, repositories []string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CompanionKey returns "companion:<coordinate>:<hash of repositories>".
// The repository order is significant.
func (DefaultKeyer) CompanionKey(coordinate string, repositories []string) string {
	return hashKey("companion:"+coordinate, repositories)
}

// ScopedKeyer wraps a Keyer with a fixed prefix.
//
//	keyer := cache.NewScopedKeyer(nil, "project:app:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
// A nil inner keyer falls back to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// CompanionKey returns the prefixed companion key.
func (k *ScopedKeyer) CompanionKey(coordinate string, repositories []string) string {
	return k.prefix + k.inner.CompanionKey(coordinate, repositories)
}
