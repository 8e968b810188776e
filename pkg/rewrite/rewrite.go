// Package rewrite turns project dependency declarations into local-file
// declarations pointing at extracted payloads.
//
// Two modes exist. In [Automatic] mode every declaration of type "aar" is
// replaced in place. In [Explicit] mode, selected when the run configures
// coordinates, a new declaration is appended per coordinate and existing
// declarations are left alone.
package rewrite

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aarunpack/pkg/coord"
	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/extract"
	"github.com/matzehuels/aarunpack/pkg/project"
	"github.com/matzehuels/aarunpack/pkg/session"
)

// Mode selects how declarations are rewritten.
type Mode int

const (
	// Automatic replaces every aar-typed declaration of the project.
	Automatic Mode = iota
	// Explicit appends one declaration per configured coordinate.
	Explicit
)

func (m Mode) String() string {
	if m == Explicit {
		return "explicit"
	}
	return "automatic"
}

// TypeJAR is the type of every rewritten declaration.
const TypeJAR = "jar"

// Job is one archive to process.
type Job struct {
	Coordinate coord.Coordinate

	// Index is the position of the bound declaration in automatic mode,
	// -1 in explicit mode.
	Index int
}

// Plan selects the mode and lists the jobs in discovery order. Explicit
// coordinates are all parsed before anything else happens, so a malformed
// one fails the run with PARSE_ERROR before any network access.
func Plan(p *project.Project, explicit []string) (Mode, []Job, error) {
	if len(explicit) > 0 {
		jobs := make([]Job, 0, len(explicit))
		for _, s := range explicit {
			c, err := coord.Parse(s)
			if err != nil {
				return Explicit, nil, err
			}
			jobs = append(jobs, Job{Coordinate: c, Index: -1})
		}
		return Explicit, jobs, nil
	}

	var jobs []Job
	for i, d := range p.Dependencies() {
		if !d.IsAAR() {
			continue
		}
		c := d.Coordinate().WithExtension(coord.ExtAAR)
		if err := c.Validate(); err != nil {
			return Automatic, nil, errs.Wrap(errs.ErrCodeInvalidManifest, err, "dependency %s", d)
		}
		jobs = append(jobs, Job{Coordinate: c, Index: i})
	}
	return Automatic, jobs, nil
}

// Rewriter applies jobs to a project.
type Rewriter struct {
	project *project.Project
	mode    Mode
	logger  *log.Logger

	mu     sync.Mutex
	reload bool
}

// New creates a Rewriter for p in the given mode.
func New(p *project.Project, mode Mode, logger *log.Logger) *Rewriter {
	if logger == nil {
		logger = log.Default()
	}
	return &Rewriter{project: p, mode: mode, logger: logger}
}

// Apply rewrites the declaration of job to point at rec.Payload and
// returns the change-log entry. sources is the resolved companion path,
// empty when there is none.
func (r *Rewriter) Apply(job Job, rec *extract.Record, sources string) (session.ClasspathEntry, error) {
	entry := session.ClasspathEntry{Payload: rec.Payload, Sources: sources}
	c := job.Coordinate

	switch r.mode {
	case Explicit:
		r.project.Add(systemDependency(project.Dependency{
			GroupID:    c.GroupID,
			ArtifactID: c.ArtifactID,
			Classifier: c.Classifier,
			Version:    c.Version,
		}, rec.Payload))
		r.logger.Debug("added declaration", "coordinate", c.String(), "payload", rec.Payload)

	default:
		deps := r.project.Dependencies()
		if job.Index < 0 || job.Index >= len(deps) {
			return entry, errs.New(errs.ErrCodeInternal, "no declaration bound to %s", c)
		}
		if err := r.project.Replace(job.Index, systemDependency(deps[job.Index], rec.Payload)); err != nil {
			return entry, err
		}
		r.logger.Debug("rewrote declaration", "coordinate", c.String(), "payload", rec.Payload)
	}

	r.mu.Lock()
	r.reload = true
	r.mu.Unlock()
	return entry, nil
}

// ReloadRequired reports whether any job was applied.
func (r *Rewriter) ReloadRequired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reload
}

// systemDependency builds a normalized declaration carrying the identity
// fields of d and its optional flag.
func systemDependency(d project.Dependency, payload string) project.Dependency {
	return project.Dependency{
		GroupID:    d.GroupID,
		ArtifactID: d.ArtifactID,
		Classifier: d.Classifier,
		Version:    d.Version,
		Optional:   d.Optional,
		Scope:      project.ScopeSystem,
		Type:       TypeJAR,
		SystemPath: payload,
	}
}
