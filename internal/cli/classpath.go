package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aarunpack/pkg/project"
	"github.com/matzehuels/aarunpack/pkg/session"
)

// classpathFlags holds flags for the classpath command.
type classpathFlags struct {
	pom     string
	format  string
	sources bool
}

// classpathCommand creates the classpath command.
func (c *CLI) classpathCommand() *cobra.Command {
	var flags classpathFlags

	cmd := &cobra.Command{
		Use:   "classpath [session-id]",
		Short: "Print the extracted classpath of a session",
		Long: `Print the payload jars published by a session, in the order they were added.

Without a session ID the latest session of the project in --file is used.`,
		Example: `  # Use as a javac classpath
  javac -cp "$(aarunpack classpath)" Main.java

  # JSON with sources jars
  aarunpack classpath 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(flags.pom)
			if err != nil {
				return err
			}
			store, err := newSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var sess *session.Session
			if len(args) == 1 {
				sess, err = store.Get(ctx, args[0])
			} else {
				var proj *project.Project
				if proj, err = project.Load(flags.pom); err != nil {
					return err
				}
				sess, err = store.Latest(ctx, proj.ID())
			}
			if err != nil {
				return err
			}
			return writeClasspath(cmd.OutOrStdout(), sess, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.pom, "file", "f", defaultPOM, "project pom.xml")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&flags.sources, "sources", false, "include sources jars in text output")

	return cmd
}

func writeClasspath(w io.Writer, sess *session.Session, flags classpathFlags) error {
	switch flags.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sess.Entries())
	case "text":
		var parts []string
		for _, e := range sess.Entries() {
			parts = append(parts, e.Payload)
			if flags.sources && e.Sources != "" {
				parts = append(parts, e.Sources)
			}
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, string(os.PathListSeparator)))
		return err
	}
	return fmt.Errorf("unknown format %q (want text or json)", flags.format)
}
