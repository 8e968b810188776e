// Package session holds the published outputs of unpack runs.
//
// A [Session] carries the classpath change log (payload jars plus optional
// sources jars, in the order they were added), the absolute extraction
// root, and whether the consuming project must reload its dependencies.
// Cooperating build steps read it back through a [Store]:
//
//   - [FileStore]: one JSON file per session (CLI default)
//   - [MongoStore]: a MongoDB collection shared by build agents
//
// # Usage
//
//	sess := session.New(project.ID())
//	// ... run the pipeline, which appends to sess ...
//	if err := store.Save(ctx, sess); err != nil {
//	    return err
//	}
//
//	latest, err := store.Latest(ctx, project.ID())
//
// Passing an existing session to another run appends to its change log
// instead of starting over.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
)

// ClasspathEntry is one change-log entry: an extracted payload and the
// companion sources jar when one was resolved.
type ClasspathEntry struct {
	Payload string `json:"payload" bson:"payload"`
	Sources string `json:"sources,omitempty" bson:"sources,omitempty"`
}

// Session is the shared state of one or more runs against a project.
// Methods are safe for concurrent use; fields should only be read
// directly once the runs are done.
type Session struct {
	ID             string           `json:"id" bson:"_id"`
	Project        string           `json:"project" bson:"project"`
	ExtractionRoot string           `json:"extraction_root,omitempty" bson:"extraction_root,omitempty"`
	Classpath      []ClasspathEntry `json:"classpath" bson:"classpath"`
	ReloadRequired bool             `json:"reload_required" bson:"reload_required"`
	Runs           int              `json:"runs" bson:"runs"`
	CreatedAt      time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" bson:"updated_at"`

	mu sync.Mutex
}

// New creates an empty session for a project with a random ID.
func New(project string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Project:   project,
		Classpath: []ClasspathEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds entries to the change log, preserving order.
func (s *Session) Append(entries ...ClasspathEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Classpath = append(s.Classpath, entries...)
	s.UpdatedAt = time.Now().UTC()
}

// Entries returns a copy of the change log.
func (s *Session) Entries() []ClasspathEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ClasspathEntry(nil), s.Classpath...)
}

// Payloads returns the payload paths of the change log in order.
func (s *Session) Payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Classpath))
	for i, e := range s.Classpath {
		out[i] = e.Payload
	}
	return out
}

// Publish records the outcome of one run: the extraction root and whether
// a reload was required.
func (s *Session) Publish(root string, reload bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtractionRoot = root
	s.ReloadRequired = s.ReloadRequired || reload
	s.Runs++
	s.UpdatedAt = time.Now().UTC()
}

// Store persists sessions.
type Store interface {
	// Get returns the session with the given ID, or an error with code
	// SESSION_NOT_FOUND.
	Get(ctx context.Context, id string) (*Session, error)

	// Latest returns the most recently updated session of a project, or
	// an error with code SESSION_NOT_FOUND.
	Latest(ctx context.Context, project string) (*Session, error)

	// List returns up to limit sessions, most recently updated first.
	// A non-positive limit returns all of them.
	List(ctx context.Context, limit int) ([]*Session, error)

	// Save inserts or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources held by the store.
	Close() error
}

func notFound(what string) error {
	return errs.New(errs.ErrCodeSessionNotFound, "session %s not found", what)
}
