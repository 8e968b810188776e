package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/aarunpack/pkg/cache"
	"github.com/matzehuels/aarunpack/pkg/extract"
	"github.com/matzehuels/aarunpack/pkg/observability"
	"github.com/matzehuels/aarunpack/pkg/project"
	"github.com/matzehuels/aarunpack/pkg/repository"
	"github.com/matzehuels/aarunpack/pkg/resolve"
	"github.com/matzehuels/aarunpack/pkg/rewrite"
	"github.com/matzehuels/aarunpack/pkg/session"
)

// Runner encapsulates run execution. It holds no per-run state, so one
// Runner can serve several projects.
type Runner struct {
	Fetcher resolve.Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewRunner creates a runner resolving through f.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (companion misses are not remembered).
func NewRunner(f resolve.Fetcher, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Fetcher: f, Cache: c, Keyer: keyer, Logger: logger}
}

// outcome is the per-job slot filled by a worker.
type outcome struct {
	resolved *resolve.Result
	record   *extract.Record
}

// Run executes one unpack run against p, appending to sess. A nil sess
// starts a new session that is discarded with the run.
//
// The first failing job cancels the others and is returned; in that case
// neither p nor sess is modified.
func (r *Runner) Run(ctx context.Context, p *project.Project, sess *session.Session, opts Options) (res *Result, err error) {
	if err := opts.ValidateAndSetDefaults(p); err != nil {
		return nil, err
	}
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}
	if sess == nil {
		sess = session.New(p.ID())
	}

	mode, jobs, err := rewrite.Plan(p, opts.Coordinates)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, mode.String(), len(jobs))
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Entries)
		}
		hooks.OnRunComplete(ctx, mode.String(), n, time.Since(start), err)
	}()

	repos := repository.Merge(p.ScopedRepositories(), p.DeclaredRepositories(), func(d repository.Descriptor, o repository.Origin) {
		if o == repository.OriginScoped {
			logger.Info("Using remote plugin repository", "id", d.ID, "url", d.URL)
		} else {
			logger.Info("Using remote project repository", "id", d.ID, "url", d.URL)
		}
	})

	extractor, err := extract.New(extract.Options{
		Root:         opts.ExtractionDir,
		ForceRefresh: opts.ForceRefresh,
		CopySources:  opts.CopySources,
	}, logger)
	if err != nil {
		return nil, err
	}
	resolver := &resolve.Resolver{
		Fetcher: r.Fetcher,
		Cache:   r.Cache,
		Keyer:   r.Keyer,
		TTL:     opts.CompanionTTL,
		Refresh: opts.ForceRefresh,
		Logger:  logger,
	}

	slots := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if mode == rewrite.Explicit {
				logger.Info("Explicitly defined AAR dependency", "coordinate", job.Coordinate.String())
			}
			resolved, err := resolver.Resolve(gctx, job.Coordinate, repos)
			if err != nil {
				return err
			}
			rec, err := extractor.Extract(gctx, resolved.Primary)
			if err != nil {
				return err
			}
			slots[i] = outcome{resolved: resolved, record: rec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res = &Result{
		Mode:           mode,
		Repositories:   repos,
		ExtractionRoot: extractor.Root(),
		Stats:          Stats{Jobs: len(jobs)},
	}
	rw := rewrite.New(p, mode, logger)
	for i, job := range jobs {
		slot := slots[i]
		var sources string
		if slot.resolved.Sources != nil {
			sources = slot.resolved.Sources.Path
			res.Stats.Sources++
		}
		entry, err := rw.Apply(job, slot.record, sources)
		if err != nil {
			return nil, err
		}
		if slot.record.CacheHit {
			res.Stats.CacheHits++
		}
		res.Records = append(res.Records, slot.record)
		res.Entries = append(res.Entries, entry)
	}

	sess.Append(res.Entries...)
	res.ReloadRequired = rw.ReloadRequired()
	sess.Publish(res.ExtractionRoot, res.ReloadRequired)
	if res.ReloadRequired {
		logger.Info("Forcing project dependency reload")
		p.Invalidate()
	}

	res.Stats.Duration = time.Since(start)
	logger.Debug("run complete",
		"mode", mode,
		"jobs", res.Stats.Jobs,
		"cache_hits", res.Stats.CacheHits,
		"duration", res.Stats.Duration)
	return res, nil
}
