package maven

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aarunpack/pkg/buildinfo"
	"github.com/matzehuels/aarunpack/pkg/coord"
	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/integrations"
	"github.com/matzehuels/aarunpack/pkg/repository"
)

// Client resolves artifacts against a local repository and an ordered list
// of remote Maven-layout repositories.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client

	// LocalRepository is the root of the local repository
	// (default ~/.m2/repository).
	LocalRepository string

	// Offline restricts resolution to the local repository.
	Offline bool

	// UpdateSnapshots re-fetches SNAPSHOT artifacts regardless of the
	// repository update policy.
	UpdateSnapshots bool

	Logger *log.Logger

	now   func() time.Time
	paths pathLocks
}

// NewClient creates a Maven client that stores downloads under localRepo.
// An empty localRepo selects [DefaultLocalRepository]; a non-positive
// timeout selects [integrations.DefaultTimeout].
func NewClient(localRepo string, timeout time.Duration, logger *log.Logger) *Client {
	if localRepo == "" {
		localRepo = DefaultLocalRepository()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		Client:          integrations.NewClient(timeout, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		LocalRepository: localRepo,
		Logger:          logger,
		now:             time.Now,
	}
}

// DefaultLocalRepository returns ~/.m2/repository, falling back to a
// relative .m2/repository when the home directory is unknown.
func DefaultLocalRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

// LocalPath returns where c is stored in the local repository.
func (c *Client) LocalPath(co coord.Coordinate) string {
	return filepath.Join(c.LocalRepository, filepath.FromSlash(co.RepositoryPath()))
}

// Fetch returns the absolute local path of co, downloading it from the
// first repository in repos that has it.
//
// A release already present locally is returned without network access.
// A present SNAPSHOT is re-fetched when UpdateSnapshots is set or when the
// update policy of an enabled repository says it is due; if that refresh
// fails the local copy is used.
//
// Returns an error with code NOT_FOUND wrapping [integrations.ErrNotFound]
// when no repository has the artifact, or NETWORK_ERROR / CHECKSUM_MISMATCH
// when at least one repository failed for another reason.
func (c *Client) Fetch(ctx context.Context, co coord.Coordinate, repos []repository.Descriptor) (string, error) {
	dest, err := filepath.Abs(c.LocalPath(co))
	if err != nil {
		return "", err
	}
	logger := c.Logger.With("artifact", co.FileName())

	// Concurrent callers for the same artifact wait here; the second one
	// finds the file present and skips the network.
	unlock := c.paths.lock(dest)
	defer unlock()

	info, statErr := os.Stat(dest)
	present := statErr == nil && info.Mode().IsRegular()
	if present && (c.Offline || !c.refreshDue(co, info.ModTime(), repos)) {
		logger.Debug("using local repository", "path", dest)
		return dest, nil
	}
	if c.Offline {
		return "", errs.Wrap(errs.ErrCodeNotFound, integrations.ErrNotFound,
			"%s is not in the local repository and offline mode is enabled", co)
	}

	var lastErr error
	for _, repo := range repos {
		if !repo.PolicyFor(co.IsSnapshot()).Enabled {
			logger.Debug("skipping repository, channel disabled", "repository", repo.ID)
			continue
		}
		if repo.Layout != repository.LayoutDefault {
			logger.Debug("skipping repository, unsupported layout", "repository", repo.ID, "layout", repo.Layout)
			continue
		}

		err := c.fetchFrom(ctx, repo, co, dest)
		if err == nil {
			logger.Debug("downloaded", "repository", repo.ID, "path", dest)
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errs.Is(err, errs.ErrCodeChecksum) {
			logger.Warn("checksum verification failed", "repository", repo.ID, "err", err)
			lastErr = err
			continue
		}
		if errors.Is(err, integrations.ErrNotFound) {
			logger.Debug("not found", "repository", repo.ID)
			continue
		}
		logger.Warn("repository failed", "repository", repo.ID, "err", err)
		lastErr = err
	}

	if present {
		logger.Warn("snapshot refresh failed, using local copy", "path", dest)
		return dest, nil
	}
	if lastErr != nil {
		if errs.GetCode(lastErr) != "" {
			return "", lastErr
		}
		return "", errs.Wrap(errs.ErrCodeNetwork, lastErr, "%s could not be downloaded", co)
	}
	return "", errs.Wrap(errs.ErrCodeNotFound, integrations.ErrNotFound,
		"%s not found in %d repositories", co, len(repos))
}

func (c *Client) refreshDue(co coord.Coordinate, mod time.Time, repos []repository.Descriptor) bool {
	if !co.IsSnapshot() {
		return false
	}
	if c.UpdateSnapshots {
		return true
	}
	now := c.now()
	for _, repo := range repos {
		p := repo.Snapshots
		if p.Enabled && p.UpdateDue(mod, now) {
			return true
		}
	}
	return false
}

// fetchFrom transfers one artifact from repo into a uniquely named partial
// file next to dest, verifies it, and renames it into place.
func (c *Client) fetchFrom(ctx context.Context, repo repository.Descriptor, co coord.Coordinate, dest string) error {
	artifactURL := repo.URL + "/" + co.RepositoryPath()
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	part := f.Name()
	f.Close()
	defer os.Remove(part)

	if err := c.transfer(ctx, artifactURL, part); err != nil {
		return err
	}
	if err := c.verify(ctx, repo, co, artifactURL, part); err != nil {
		return err
	}
	return os.Rename(part, dest)
}

func (c *Client) transfer(ctx context.Context, rawURL, dest string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https":
		return c.Download(ctx, rawURL, dest)
	case "file":
		return copyFile(filepath.FromSlash(u.Path), dest)
	default:
		return errs.New(errs.ErrCodeUnsupported, "unsupported repository scheme %q", u.Scheme)
	}
}

func (c *Client) readText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "file" {
		data, err := os.ReadFile(filepath.FromSlash(u.Path))
		if errors.Is(err, fs.ErrNotExist) {
			return "", integrations.ErrNotFound
		}
		return string(data), err
	}
	return c.GetText(ctx, rawURL)
}

// verify applies the repository checksum policy against the .sha1 sidecar.
func (c *Client) verify(ctx context.Context, repo repository.Descriptor, co coord.Coordinate, artifactURL, path string) error {
	policy := repo.PolicyFor(co.IsSnapshot()).ChecksumPolicy
	if policy == repository.ChecksumIgnore {
		return nil
	}
	logger := c.Logger.With("artifact", co.FileName(), "repository", repo.ID)

	text, err := c.readText(ctx, artifactURL+".sha1")
	if err != nil {
		if policy == repository.ChecksumFail {
			return errs.New(errs.ErrCodeChecksum, "no checksum available for %s: %v", co, err)
		}
		logger.Debug("no checksum available", "err", err)
		return nil
	}

	want := parseChecksum(text)
	got, err := sha1File(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(want, got) {
		return nil
	}
	if policy == repository.ChecksumFail {
		return errs.New(errs.ErrCodeChecksum, "checksum mismatch for %s from %s: expected %s, got %s", co, repo.ID, want, got)
	}
	logger.Warn("checksum mismatch", "expected", want, "actual", got)
	return nil
}

// parseChecksum accepts both "<hex>" and "<hex>  <filename>" sidecars.
func parseChecksum(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func sha1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return integrations.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
