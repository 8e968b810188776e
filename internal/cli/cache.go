package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aarunpack/pkg/cache"
	"github.com/matzehuels/aarunpack/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var pom string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cache of missing sources jars",
	}
	cmd.PersistentFlags().StringVarP(&pom, "file", "f", defaultPOM, "project pom.xml (locates aarunpack.toml)")

	cmd.AddCommand(c.cacheClearCommand(&pom))
	cmd.AddCommand(c.cachePathCommand(&pom))

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(pom *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all remembered sources misses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(*pom)
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != config.CacheFile && cfg.Cache.Backend != "" {
				printWarning("The %s cache backend expires entries by itself", cfg.Cache.Backend)
				return nil
			}
			dir, err := fileCacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared cached entries")
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(pom *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(*pom)
			if err != nil {
				return err
			}
			dir, err := fileCacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func fileCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}
