package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/aarunpack/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		pom  string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve published sessions over HTTP",
		Long: `Start a read-only HTTP API over the session store so other build steps can
fetch the extracted classpath:

  GET /sessions/{id}/classpath?format=text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(pom)
			if err != nil {
				return err
			}
			store, err := newSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return server.New(store, loggerFromContext(ctx)).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&pom, "file", "f", defaultPOM, "project pom.xml (locates aarunpack.toml)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")

	return cmd
}
