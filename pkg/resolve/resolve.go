// Package resolve turns archive coordinates into local files.
//
// A [Resolver] asks a [Fetcher] for the primary archive, which must succeed,
// and then for its "sources" companion, which may fail without consequence.
// Companion misses are remembered in a [cache.Cache] so later runs skip the
// network round trip.
package resolve

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aarunpack/pkg/cache"
	"github.com/matzehuels/aarunpack/pkg/coord"
	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/observability"
	"github.com/matzehuels/aarunpack/pkg/repository"
)

// DefaultCompanionTTL is how long a companion miss is remembered.
const DefaultCompanionTTL = 24 * time.Hour

// Fetcher resolves a single coordinate against an ordered repository list
// and returns the absolute path of the local file. Tie-breaking between
// repositories is the fetcher's business.
type Fetcher interface {
	Fetch(ctx context.Context, c coord.Coordinate, repos []repository.Descriptor) (string, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, c coord.Coordinate, repos []repository.Descriptor) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, c coord.Coordinate, repos []repository.Descriptor) (string, error) {
	return f(ctx, c, repos)
}

// Artifact is a coordinate bound to a file on the local filesystem.
type Artifact struct {
	Coordinate coord.Coordinate
	Path       string
}

// Result is the outcome of resolving one archive.
type Result struct {
	Primary Artifact
	Sources *Artifact // nil when no companion could be resolved
}

// Resolver resolves archives and their companions.
type Resolver struct {
	Fetcher Fetcher

	// Cache remembers companion misses. Nil disables it.
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration

	// Refresh bypasses remembered companion misses.
	Refresh bool

	Logger *log.Logger
}

// New creates a Resolver with no companion cache.
func New(f Fetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{Fetcher: f, Logger: logger}
}

// Resolve fetches the archive for c (its extension forced to "aar") and,
// unless c is itself a sources artifact, attempts the companion
// g:a:sources:jar:v. Only a primary failure is returned, as a
// RESOLUTION_ERROR.
func (r *Resolver) Resolve(ctx context.Context, c coord.Coordinate, repos []repository.Descriptor) (*Result, error) {
	primary := c.WithExtension(coord.ExtAAR)
	logger := r.logger().With("coordinate", primary.String())

	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, primary.String())
	start := time.Now()

	path, err := r.Fetcher.Fetch(ctx, primary, repos)
	hooks.OnResolveComplete(ctx, primary.String(), time.Since(start), err)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeResolution, err, "unable to resolve %s", primary)
	}
	logger.Debug("resolved archive", "path", path)

	res := &Result{Primary: Artifact{Coordinate: primary, Path: path}}
	if primary.IsSources() {
		return res, nil
	}
	res.Sources = r.resolveCompanion(ctx, primary.Sources(), repos, logger)
	return res, nil
}

func (r *Resolver) resolveCompanion(ctx context.Context, c coord.Coordinate, repos []repository.Descriptor, logger *log.Logger) *Artifact {
	key := r.companionKey(c, repos)
	if r.Cache != nil && !r.Refresh {
		if _, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "companion")
			logger.Debug("sources previously missing, skipping", "sources", c.String())
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, "companion")
	}

	path, err := r.Fetcher.Fetch(ctx, c, repos)
	if err != nil {
		cerr := errs.Wrap(errs.ErrCodeCompanionResolution, err, "unable to resolve sources %s", c)
		logger.Debug("no sources companion", "err", cerr)
		if r.Cache != nil && ctx.Err() == nil {
			marker := []byte(time.Now().UTC().Format(time.RFC3339))
			if err := r.Cache.Set(ctx, key, marker, r.ttl()); err != nil {
				logger.Debug("cannot record sources miss", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "companion", len(marker))
			}
		}
		return nil
	}
	if r.Cache != nil {
		_ = r.Cache.Delete(ctx, key)
	}
	logger.Debug("resolved sources", "path", path)
	return &Artifact{Coordinate: c, Path: path}
}

func (r *Resolver) companionKey(c coord.Coordinate, repos []repository.Descriptor) string {
	urls := make([]string, len(repos))
	for i, d := range repos {
		urls[i] = d.URL
	}
	keyer := r.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return keyer.CompanionKey(c.String(), urls)
}

func (r *Resolver) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return DefaultCompanionTTL
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}
