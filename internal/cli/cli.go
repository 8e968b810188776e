package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/aarunpack/pkg/buildinfo"
	"github.com/matzehuels/aarunpack/pkg/cache"
	"github.com/matzehuels/aarunpack/pkg/config"
	"github.com/matzehuels/aarunpack/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "aarunpack"

	// defaultPOM is the project file looked up in the working directory.
	defaultPOM = "pom.xml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the aarunpack.toml lookup next to the POM.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "aarunpack unpacks Android archives onto a Maven classpath",
		Long: `aarunpack resolves Android archive (AAR) dependencies, extracts their classes.jar
into the build directory and rewrites the project's declarations to point at the
extracted jars, so plain JVM builds can compile against Android libraries.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: aarunpack.toml next to the pom)")

	root.AddCommand(c.unpackCommand())
	root.AddCommand(c.classpathCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Backends
// =============================================================================

// loadConfig reads the --config file, or aarunpack.toml next to pomPath.
func (c *CLI) loadConfig(pomPath string) (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.Discover(pomPath)
	}
	return config.Load(path)
}

// newCache opens the companion cache selected by cfg.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	}
	dir, err := fileCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newSessionStore opens the session store selected by cfg.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Session.Backend == config.SessionMongo {
		return session.NewMongoStore(ctx, cfg.Session.MongoURI, cfg.Session.MongoDatabase)
	}
	return session.NewFileStore(cfg.Session.Dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/aarunpack/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
