package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clsforge/internal/config"
	"github.com/zjrosen/clsforge/internal/flags"
	"github.com/zjrosen/clsforge/internal/log"
	"github.com/zjrosen/clsforge/internal/presentation"
	"github.com/zjrosen/clsforge/internal/pubsub"
	"github.com/zjrosen/clsforge/internal/watcher"
)

var (
	watchProject  string
	watchFiles    []string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild a project whenever its catalog or taxonomy changes",
	Long: `Build the project, then rebuild it whenever a catalog file, the
catalog database or the taxonomy file changes. After each rebuild the
entries that appeared or disappeared are printed as a line diff
(+ added, - removed). Stop with Ctrl+C.

Example:
  clsforge watch -p arm -f parts/arm.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cfg, watchProject, watchFiles, watchDebounce, os.Stdout)
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "project to build (required)")
	watchCmd.Flags().StringArrayVarP(&watchFiles, "file", "f", nil, "YAML catalog file, overrides the configured catalog (repeatable)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultConfig().DebounceDur, "quiet period before rebuilding")
	_ = watchCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(watchCmd)
}

// watchedPaths lists the inputs of a build.
func watchedPaths(c config.Config, files []string) []string {
	var paths []string
	switch {
	case len(files) > 0:
		paths = append(paths, files...)
	case c.Catalog.Driver == config.DriverYAML:
		paths = append(paths, c.Catalog.Files...)
	default:
		paths = append(paths, c.Catalog.Path)
	}
	if c.Taxonomy.Path != "" {
		paths = append(paths, c.Taxonomy.Path)
	}
	return paths
}

// rebuildResult is published after every rebuild in watch mode.
type rebuildResult struct {
	Project string
	Repo    presentation.RepositoryDTO
	Diff    string
	Err     error
}

// runWatch builds once, then rebuilds on every debounced change until ctx
// is done. A failing rebuild is reported and the previous result is kept.
func runWatch(ctx context.Context, c config.Config, project string, files []string, debounce time.Duration, w io.Writer) error {
	rebuild := func() (presentation.RepositoryDTO, error) {
		// The environment is reopened so YAML files and the taxonomy are reread.
		env, err := newEnvironment(c, files)
		if err != nil {
			return presentation.RepositoryDTO{}, err
		}
		defer func() { _ = env.Close() }()
		repo, stats, err := buildRepository(ctx, env, project)
		if err != nil {
			return presentation.RepositoryDTO{}, err
		}
		return presentation.FromRepository(project, repo, stats), nil
	}

	// Watch before the first build so no change between the two is missed.
	if len(files) == 0 && c.Catalog.Driver != config.DriverYAML {
		if err := os.MkdirAll(filepath.Dir(c.Catalog.Path), 0o700); err != nil {
			return fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	fw, err := watcher.New(watcher.Config{Paths: watchedPaths(c, files), DebounceDur: debounce})
	if err != nil {
		return err
	}
	defer func() { _ = fw.Stop() }()
	changes, err := fw.Start()
	if err != nil {
		return err
	}

	current, err := rebuild()
	if err != nil {
		return err
	}
	if err := presentation.NewFormatter(w).FormatRepository(current, presentation.FormatTable); err != nil {
		return err
	}

	broker := pubsub.NewBroker[rebuildResult]()
	events := broker.Subscribe(ctx)
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		reportRebuilds(events, w, flags.New(c.Flags).Enabled(flags.FlagWatchTable))
	}()
	defer func() {
		broker.Close()
		<-reported
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-changes:
			log.Info(log.CatWatcher, "change detected, rebuilding", "project", project, "files", changed)
			next, err := rebuild()
			if err != nil {
				log.ErrorErr(log.CatWatcher, "Rebuild failed", err, "project", project)
				broker.Publish(pubsub.BuildFailed, rebuildResult{Project: project, Err: err})
				continue
			}
			broker.Publish(pubsub.BuildSucceeded, rebuildResult{
				Project: project,
				Repo:    next,
				Diff:    presentation.DiffRepositories(current, next),
			})
			current = next
		}
	}
}

// reportRebuilds prints each rebuild until events is closed.
func reportRebuilds(events <-chan pubsub.Event[rebuildResult], w io.Writer, showTable bool) {
	for event := range events {
		r := event.Payload
		switch event.Type {
		case pubsub.BuildFailed:
			_, _ = fmt.Fprintf(w, "rebuild failed: %v\n", r.Err)
		case pubsub.BuildSucceeded:
			_, _ = fmt.Fprintf(w, "rebuilt %s: %d entries\n", r.Project, len(r.Repo.Entries))
			_, _ = io.WriteString(w, r.Diff)
			if showTable {
				_ = presentation.NewFormatter(w).FormatRepository(r.Repo, presentation.FormatTable)
			}
		}
	}
}
