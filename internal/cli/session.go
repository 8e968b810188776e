package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	var pom string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect published sessions",
	}
	cmd.PersistentFlags().StringVarP(&pom, "file", "f", defaultPOM, "project pom.xml (locates aarunpack.toml)")

	cmd.AddCommand(c.sessionListCommand(&pom))
	cmd.AddCommand(c.sessionShowCommand(&pom))
	cmd.AddCommand(c.sessionDeleteCommand(&pom))

	return cmd
}

// sessionListCommand creates the "session list" subcommand.
func (c *CLI) sessionListCommand(pom *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(*pom)
			if err != nil {
				return err
			}
			store, err := newSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				printInfo("No sessions")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %s  %s\n",
					StyleHighlight.Render(s.ID),
					StyleValue.Render(s.Project),
					StyleDim.Render(fmt.Sprintf("%d entries · %d runs · %s",
						len(s.Classpath), s.Runs, s.UpdatedAt.Local().Format("2006-01-02 15:04"))))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to list (0 for all)")

	return cmd
}

// sessionShowCommand creates the "session show" subcommand.
func (c *CLI) sessionShowCommand(pom *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its classpath change log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(*pom)
			if err != nil {
				return err
			}
			store, err := newSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			printKeyValue("ID", s.ID)
			printKeyValue("Project", s.Project)
			printKeyValue("Root", s.ExtractionRoot)
			printKeyValue("Runs", strconv.Itoa(s.Runs))
			printKeyValue("Reload", strconv.FormatBool(s.ReloadRequired))
			printKeyValue("Updated", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			printNewline()
			for _, e := range s.Entries() {
				printFile(e.Payload)
				if e.Sources != "" {
					printDetail("sources: %s", e.Sources)
				}
			}
			return nil
		},
	}
}

// sessionDeleteCommand creates the "session delete" subcommand.
func (c *CLI) sessionDeleteCommand(pom *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session (extracted files are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(*pom)
			if err != nil {
				return err
			}
			store, err := newSessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted session %s", args[0])
			return nil
		},
	}
}
