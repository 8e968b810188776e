// Package pipeline drives an unpack run from repository lists to the
// published change log.
//
// # Stages
//
//  1. Plan: pick automatic or explicit mode and list the jobs; malformed
//     explicit coordinates fail here, before any network access
//  2. Merge: build the repository list once (scoped first, then declared)
//  3. Resolve and extract: each job is resolved and unpacked by a bounded
//     worker pool
//  4. Rewrite: declarations are rewritten in discovery order, the change
//     log is appended to the session, and the project is invalidated once
//
// Stage 4 only starts when every job of stage 3 succeeded, so a failed run
// leaves the project untouched.
//
// # Usage
//
//	runner := pipeline.NewRunner(mavenClient, companionCache, nil, logger)
//	result, err := runner.Run(ctx, proj, sess, pipeline.Options{
//	    CopySources: true,
//	})
package pipeline

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/extract"
	"github.com/matzehuels/aarunpack/pkg/project"
	"github.com/matzehuels/aarunpack/pkg/repository"
	"github.com/matzehuels/aarunpack/pkg/rewrite"
	"github.com/matzehuels/aarunpack/pkg/session"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and config
// =============================================================================

const (
	// DefaultExtractionDir is the extraction root relative to the project
	// build directory.
	DefaultExtractionDir = "aar-extracted"

	// DefaultWorkers bounds concurrent resolve and extract jobs.
	DefaultWorkers = 4

	// MaxWorkers caps the worker pool.
	MaxWorkers = 64
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures one run.
type Options struct {
	// Coordinates selects explicit mode when non-empty.
	Coordinates []string `json:"coordinates,omitempty"`

	// ExtractionDir is the extraction root. Relative paths are resolved
	// against the project directory; empty means
	// <buildDir>/aar-extracted.
	ExtractionDir string `json:"extraction_dir,omitempty"`

	CopySources  bool `json:"copy_sources,omitempty"`
	ForceRefresh bool `json:"force_refresh,omitempty"`

	// Workers bounds concurrent jobs. 1 processes jobs strictly in order.
	Workers int `json:"workers,omitempty"`

	// CompanionTTL is how long a sources miss is remembered.
	CompanionTTL time.Duration `json:"companion_ttl,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults fills unset fields from p and checks ranges.
func (o *Options) ValidateAndSetDefaults(p *project.Project) error {
	switch {
	case o.ExtractionDir == "":
		o.ExtractionDir = filepath.Join(p.BuildDir, DefaultExtractionDir)
	case !filepath.IsAbs(o.ExtractionDir):
		o.ExtractionDir = filepath.Join(p.Dir(), o.ExtractionDir)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return errs.New(errs.ErrCodeInvalidConfig, "workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}
	if o.CompanionTTL < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "companion ttl cannot be negative")
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	// Mode is the rewrite mode that was selected.
	Mode rewrite.Mode

	// Repositories is the merged repository list.
	Repositories []repository.Descriptor

	// Records holds one extraction record per job, in job order.
	Records []*extract.Record

	// Entries is what this run appended to the session change log.
	Entries []session.ClasspathEntry

	// ExtractionRoot is the absolute extraction root.
	ExtractionRoot string

	// ReloadRequired reports whether the project was invalidated.
	ReloadRequired bool

	Stats Stats
}

// Stats contains run statistics.
type Stats struct {
	Jobs      int
	CacheHits int
	Sources   int
	Duration  time.Duration
}
