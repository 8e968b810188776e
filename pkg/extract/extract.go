package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/observability"
	"github.com/matzehuels/aarunpack/pkg/resolve"
)

// PayloadEntry is the archive entry that must exist at the root of every
// extraction directory.
const PayloadEntry = "classes.jar"

// MarkerFile records which coordinate owns an extraction directory.
const MarkerFile = ".aarunpack-coordinate"

const sourcesSuffix = "-sources.jar"

// Options configures an [Extractor].
type Options struct {
	// Root is the directory holding all extraction directories.
	Root string

	// ForceRefresh rebuilds existing extraction directories.
	ForceRefresh bool

	// CopySources copies the sibling sources jar of each archive into its
	// extraction directory.
	CopySources bool
}

// Record describes one extracted archive.
type Record struct {
	Dir      string // absolute extraction directory
	Payload  string // Dir/classes.jar
	Sources  string // copied sources jar inside Dir, empty if none
	CacheHit bool   // Dir existed and the archive was not read
}

// Extractor unpacks archives. It is safe for concurrent use.
type Extractor struct {
	opts   Options
	logger *log.Logger
	locks  keyedMutex
}

// New creates an Extractor. A relative root is made absolute against the
// working directory.
func New(opts Options, logger *log.Logger) (*Extractor, error) {
	if opts.Root == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "extraction root is empty")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "extraction root %s", opts.Root)
	}
	opts.Root = root
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{opts: opts, logger: logger}, nil
}

// Root returns the absolute extraction root.
func (e *Extractor) Root() string { return e.opts.Root }

// Dir returns the extraction directory for an artifact, whether or not it
// exists yet.
func (e *Extractor) Dir(a resolve.Artifact) string {
	return filepath.Join(e.opts.Root, a.Coordinate.Key())
}

// Extract makes sure the archive is unpacked and that its payload exists.
//
// Errors carry EXTRACTION_ERROR when the archive cannot be read or the
// destination cannot be prepared, and MISSING_ENTRY when the destination
// lacks classes.jar.
func (e *Extractor) Extract(ctx context.Context, a resolve.Artifact) (rec *Record, err error) {
	start := time.Now()
	defer func() {
		observability.Pipeline().OnExtractComplete(ctx, a.Coordinate.String(), rec != nil && rec.CacheHit, time.Since(start), err)
	}()

	dir := e.Dir(a)
	logger := e.logger.With("coordinate", a.Coordinate.String(), "dir", dir)

	unlock := e.locks.lock(dir)
	defer unlock()

	rec = &Record{Dir: dir, Payload: filepath.Join(dir, PayloadEntry)}

	info, statErr := os.Stat(dir)
	switch {
	case statErr == nil && info.IsDir() && !e.opts.ForceRefresh:
		if err := checkOwner(dir, a); err != nil {
			return nil, err
		}
		logger.Debug("already extracted")
		rec.CacheHit = true

	case statErr == nil && info.IsDir():
		logger.Debug("forcing re-extraction")
		if err := os.RemoveAll(dir); err != nil {
			return nil, errs.Wrap(errs.ErrCodeExtraction, err, "unable to remove %s", dir)
		}
		if err := e.unpack(ctx, a, dir); err != nil {
			return nil, err
		}

	case statErr == nil:
		logger.Warn("conflicting file found at extraction path, removing it")
		if err := os.Remove(dir); err != nil {
			return nil, errs.Wrap(errs.ErrCodeExtraction, err, "unable to remove conflicting file %s", dir)
		}
		if err := e.unpack(ctx, a, dir); err != nil {
			return nil, err
		}

	case errors.Is(statErr, fs.ErrNotExist):
		if err := e.unpack(ctx, a, dir); err != nil {
			return nil, err
		}

	default:
		return nil, errs.Wrap(errs.ErrCodeExtraction, statErr, "unable to inspect %s", dir)
	}

	if fi, err := os.Stat(rec.Payload); err != nil || !fi.Mode().IsRegular() {
		return nil, errs.New(errs.ErrCodeMissingEntry, "%s has no %s (archive %s)", dir, PayloadEntry, a.Path)
	}

	if e.opts.CopySources {
		rec.Sources = e.copySources(a, dir, logger)
	}
	return rec, nil
}

// checkOwner fails when dir was produced for a different coordinate that
// happens to share its directory name. Directories without a marker are
// trusted.
func checkOwner(dir string, a resolve.Artifact) error {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return nil
	}
	owner := strings.TrimSpace(string(data))
	if owner != "" && owner != a.Coordinate.String() {
		return errs.New(errs.ErrCodeExtraction,
			"%s already holds %s, refusing to reuse it for %s", dir, owner, a.Coordinate)
	}
	return nil
}

// unpack extracts the archive into a staging directory and renames it to
// dir.
func (e *Extractor) unpack(ctx context.Context, a resolve.Artifact, dir string) error {
	if err := os.MkdirAll(e.opts.Root, 0o755); err != nil {
		return errs.Wrap(errs.ErrCodeExtraction, err, "unable to create %s", e.opts.Root)
	}
	staging, err := os.MkdirTemp(e.opts.Root, ".staging-"+filepath.Base(dir)+"-")
	if err != nil {
		return errs.Wrap(errs.ErrCodeExtraction, err, "unable to create staging directory")
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	n, err := unzip(ctx, a.Path, staging)
	if err != nil {
		return errs.Wrap(errs.ErrCodeExtraction, err, "unable to unpack %s to %s", a.Path, dir)
	}
	marker := filepath.Join(staging, MarkerFile)
	if err := os.WriteFile(marker, []byte(a.Coordinate.String()+"\n"), 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeExtraction, err, "unable to write %s", marker)
	}

	if err := os.Rename(staging, dir); err != nil {
		// Another process may have won the race.
		if fi, statErr := os.Stat(dir); statErr == nil && fi.IsDir() {
			e.logger.Debug("extraction directory appeared concurrently", "dir", dir)
			return nil
		}
		return errs.Wrap(errs.ErrCodeExtraction, err, "unable to move extraction into %s", dir)
	}
	committed = true
	e.logger.Debug("extracted", "archive", a.Path, "dir", dir, "entries", n)
	return nil
}

// unzip writes every entry of the archive below dest and returns the
// number of files written. Entries that would land outside dest are
// rejected.
func unzip(ctx context.Context, archive, dest string) (int, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	files := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		rel, err := filepath.Rel(dest, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(f.Name) {
			return files, fmt.Errorf("entry %q escapes the extraction directory", f.Name)
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
			continue
		case !mode.IsRegular():
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return files, err
		}
		if err := writeEntry(f, target); err != nil {
			return files, fmt.Errorf("entry %s: %w", f.Name, err)
		}
		files++
	}
	return files, nil
}

func writeEntry(f *zip.File, target string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, rc)
	return err
}

// SourcesSibling returns the path of the sources jar that accompanies an
// archive in the local repository, or "" when the archive name does not
// end in ".aar".
func SourcesSibling(archive string) string {
	if !strings.HasSuffix(strings.ToLower(archive), ".aar") {
		return ""
	}
	return archive[:len(archive)-len(".aar")] + sourcesSuffix
}

func (e *Extractor) copySources(a resolve.Artifact, dir string, logger *log.Logger) string {
	src := SourcesSibling(a.Path)
	if src == "" {
		return ""
	}
	if _, err := os.Stat(src); err != nil {
		logger.Debug("no sources jar next to archive", "sources", src)
		return ""
	}
	dest := filepath.Join(dir, filepath.Base(src))
	if err := copyFile(src, dest); err != nil {
		logger.Warn("unable to copy sources jar",
			"err", errs.Wrap(errs.ErrCodeCompanionCopy, err, "copy %s", src))
		return ""
	}
	logger.Debug("copied sources jar", "path", dest)
	return dest
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
