package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aarunpack/pkg/config"
	"github.com/matzehuels/aarunpack/pkg/integrations/maven"
	"github.com/matzehuels/aarunpack/pkg/pipeline"
	"github.com/matzehuels/aarunpack/pkg/project"
	"github.com/matzehuels/aarunpack/pkg/session"
)

// unpackFlags holds flags for the unpack command.
type unpackFlags struct {
	pom             string
	coordinates     []string
	extractionDir   string
	copySources     bool
	updateSnapshots bool
	forceRefresh    bool
	workers         int
	offline         bool
	localRepository string
	session         string
	writePOM        string
	noSave          bool
}

// unpackCommand creates the unpack command.
func (c *CLI) unpackCommand() *cobra.Command {
	var flags unpackFlags

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Extract AAR dependencies and rewrite them onto the classpath",
		Long: `Resolve the project's AAR dependencies, extract each classes.jar into the
build directory and rewrite the declarations as system-scoped jars.

Without --coordinates every dependency of type "aar" is rewritten in place.
With --coordinates the listed archives are added as new declarations instead.`,
		Example: `  # Rewrite every aar dependency of ./pom.xml
  aarunpack unpack

  # Add explicit archives, copying their sources jars next to the payload
  aarunpack unpack --coordinates androidx.graphics:graphics-core:1.0.2 --copy-sources

  # Re-extract everything and refresh snapshots
  aarunpack unpack -U`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUnpack(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.pom, "file", "f", defaultPOM, "project pom.xml")
	cmd.Flags().StringSliceVar(&flags.coordinates, "coordinates", nil, "explicit coordinates (groupId:artifactId[:classifier]:version)")
	cmd.Flags().StringVar(&flags.extractionDir, "extraction-dir", "", "extraction root (default: <build dir>/"+pipeline.DefaultExtractionDir+")")
	cmd.Flags().BoolVar(&flags.copySources, "copy-sources", false, "copy the sources jar next to each extracted archive")
	cmd.Flags().BoolVarP(&flags.updateSnapshots, "update-snapshots", "U", false, "re-fetch snapshots and re-extract cached archives")
	cmd.Flags().BoolVar(&flags.forceRefresh, "force-refresh", false, "re-extract cached archives")
	cmd.Flags().IntVarP(&flags.workers, "workers", "j", pipeline.DefaultWorkers, "concurrent resolve and extract jobs")
	cmd.Flags().BoolVarP(&flags.offline, "offline", "o", false, "only use the local repository")
	cmd.Flags().StringVar(&flags.localRepository, "local-repository", "", "local repository (default: ~/.m2/repository)")
	cmd.Flags().StringVar(&flags.session, "session", "", `continue a session by ID ("latest" for the project's last one)`)
	cmd.Flags().StringVar(&flags.writePOM, "write-pom", "", "write the rewritten pom to this path")
	cmd.Flags().BoolVar(&flags.noSave, "no-save", false, "do not persist the session")

	return cmd
}

// applyFlags overrides cfg with the flags the user set explicitly.
func (f unpackFlags) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("coordinates") {
		cfg.Coordinates = f.coordinates
	}
	if changed("extraction-dir") {
		cfg.ExtractionDir = f.extractionDir
	}
	if changed("copy-sources") {
		cfg.CopySources = f.copySources
	}
	if changed("force-refresh") {
		cfg.ForceRefresh = f.forceRefresh
	}
	if f.updateSnapshots {
		cfg.ForceRefresh = true
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("offline") {
		cfg.Offline = f.offline
	}
	if changed("local-repository") {
		cfg.LocalRepository = f.localRepository
	}
}

func (c *CLI) runUnpack(cmd *cobra.Command, flags unpackFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig(flags.pom)
	if err != nil {
		return err
	}
	flags.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	proj, err := project.Load(flags.pom)
	if err != nil {
		return err
	}
	proj.Central = cfg.CentralRepository()

	client := maven.NewClient(cfg.LocalRepository, cfg.RequestTimeout.Duration, logger)
	client.Offline = cfg.Offline
	client.UpdateSnapshots = flags.updateSnapshots

	companions, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer companions.Close()

	store, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := openSession(ctx, store, flags.session, proj.ID())
	if err != nil {
		return err
	}

	opts := cfg.PipelineOptions()
	opts.Logger = logger
	runner := pipeline.NewRunner(client, companions, nil, logger)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Unpacking "+proj.ID()+"...")
	spinner.Start()
	result, err := runner.Run(ctx, proj, sess, opts)
	if err != nil {
		spinner.StopWithError("Unpack failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Run finished with %d jobs", result.Stats.Jobs))

	if !flags.noSave {
		if err := store.Save(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	if flags.writePOM != "" {
		if err := writeEffectivePOM(proj, flags.writePOM); err != nil {
			return err
		}
	}

	printUnpackResult(result, sess, flags)
	return nil
}

// openSession resumes the session named by ref, or starts a new one.
func openSession(ctx context.Context, store session.Store, ref, projectID string) (*session.Session, error) {
	switch ref {
	case "":
		return session.New(projectID), nil
	case "latest":
		return store.Latest(ctx, projectID)
	}
	return store.Get(ctx, ref)
}

func writeEffectivePOM(p *project.Project, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write pom: %w", err)
	}
	if err := p.WriteEffective(f); err != nil {
		f.Close()
		return fmt.Errorf("write pom: %w", err)
	}
	return f.Close()
}

func printUnpackResult(res *pipeline.Result, sess *session.Session, flags unpackFlags) {
	printSuccess("Unpacked %d archives (%s mode)", res.Stats.Jobs, res.Mode)
	printRunStats(res.Stats)
	for _, e := range res.Entries {
		printFile(e.Payload)
	}
	printNewline()
	printKeyValue("Root", res.ExtractionRoot)
	if flags.noSave {
		printKeyValue("Session", sess.ID+" (not saved)")
	} else {
		printKeyValue("Session", sess.ID)
	}
	if res.ReloadRequired {
		printKeyValue("Reload", StyleWarning.Render("required"))
	}
	if flags.writePOM != "" {
		printKeyValue("POM", flags.writePOM)
	}
	if !flags.noSave {
		printNewline()
		printNextStep("Print the classpath", appName+" classpath "+sess.ID)
	}
}
