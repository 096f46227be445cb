package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clsforge/internal/builder"
	"github.com/zjrosen/clsforge/internal/config"
	"github.com/zjrosen/clsforge/internal/log"
	"github.com/zjrosen/clsforge/internal/presentation"
)

var (
	buildProject    string
	buildFiles      []string
	buildBlacklist  []string
	buildPropagated []string
	buildTaxonomy   string
	buildConnect    string
	buildParallel   bool
	buildWorkers    int
	buildFormat     string
	buildSave       bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the combinator repository of a project",
	Long: `Build the typed combinator repository of a project and print it.

Every configuration of every part becomes one combinator whose type maps
the required joint origins, in order, to the provided one. Configurations
providing a blacklisted type are left out; required slots whose filler
would provide one get a connector marker combinator instead.

Examples:
  # Build from the configured catalog
  clsforge build --project arm

  # Build straight from YAML, reserving fasteners for connectors
  clsforge build -p arm -f parts/arm.yaml --taxonomy taxonomy.yaml --blacklist Fastener

  # Thread a material attribute through every combinator
  clsforge build -p arm --propagated Steel --propagated Aluminium,Anodized

  # Render a table and remember the options in the config file
  clsforge build -p arm -o table --blacklist Fastener --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		build := buildConfigFromFlags(cmd, cfg.Build)
		c := cfg
		c.Build = build
		if cmd.Flags().Changed("taxonomy") {
			c.Taxonomy.Path = buildTaxonomy
		}
		if err := config.ValidateBuild(build); err != nil {
			return err
		}

		env, err := newEnvironment(c, buildFiles)
		if err != nil {
			return err
		}
		defer func() { _ = env.Close() }()

		if _, err := runBuild(cmd.Context(), env, buildProject, buildFormat, os.Stdout); err != nil {
			return err
		}

		if buildSave {
			path := configFilePath()
			if err := config.SaveBuild(path, build); err != nil {
				return fmt.Errorf("saving build options: %w", err)
			}
			log.Info(log.CatConfig, "Build options saved", "path", path)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildProject, "project", "p", "", "project to build (required)")
	buildCmd.Flags().StringArrayVarP(&buildFiles, "file", "f", nil, "YAML catalog file, overrides the configured catalog (repeatable)")
	buildCmd.Flags().StringSliceVar(&buildBlacklist, "blacklist", nil, "blacklisted type names, intersected (repeatable or comma separated)")
	buildCmd.Flags().StringArrayVar(&buildPropagated, "propagated", nil, "comma separated propagated type names (repeatable, one set each)")
	buildCmd.Flags().StringVar(&buildTaxonomy, "taxonomy", "", "taxonomy YAML file (overrides taxonomy.path)")
	buildCmd.Flags().StringVar(&buildConnect, "connect", "", "joint origin the blacklist was derived from (recorded only)")
	buildCmd.Flags().BoolVar(&buildParallel, "parallel", false, "encode parts concurrently")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "parallel workers (0 = number of CPUs)")
	buildCmd.Flags().StringVarP(&buildFormat, "output", "o", presentation.FormatJSON, "output format: json or table")
	buildCmd.Flags().BoolVar(&buildSave, "save", false, "save the build options to the config file")
	_ = buildCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(buildCmd)
}

// buildConfigFromFlags overlays the flags that were set on base.
func buildConfigFromFlags(cmd *cobra.Command, base config.BuildConfig) config.BuildConfig {
	b := base
	if cmd.Flags().Changed("blacklist") {
		b.Blacklist = buildBlacklist
	}
	if cmd.Flags().Changed("propagated") {
		b.PropagatedTypes = parsePropagated(buildPropagated)
	}
	if cmd.Flags().Changed("connect") {
		b.ConnectJointOrigin = buildConnect
	}
	if cmd.Flags().Changed("parallel") {
		b.Parallel = buildParallel
	}
	if cmd.Flags().Changed("workers") {
		b.Workers = buildWorkers
	}
	return b
}

// parsePropagated splits "A,B" values into type name sets. Blank names
// are dropped, so an all-blank value yields an empty set and is rejected
// by config validation.
func parsePropagated(values []string) [][]string {
	sets := make([][]string, 0, len(values))
	for _, v := range values {
		set := []string{}
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				set = append(set, name)
			}
		}
		sets = append(sets, set)
	}
	return sets
}

// buildRepository builds project with the environment's configured options.
func buildRepository(ctx context.Context, env *environment, project string) (*builder.Repository, builder.Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	repo, stats, err := env.builder().AddAllToRepository(ctx, project, env.options(env.cfg.Build))
	env.writeMetrics()
	if err != nil {
		return nil, builder.Stats{}, fmt.Errorf("building %q: %w", project, err)
	}
	return repo, stats, nil
}

// runBuild builds project and writes it to w in format.
func runBuild(ctx context.Context, env *environment, project, format string, w io.Writer) (presentation.RepositoryDTO, error) {
	repo, stats, err := buildRepository(ctx, env, project)
	if err != nil {
		return presentation.RepositoryDTO{}, err
	}
	dto := presentation.FromRepository(project, repo, stats)
	if err := presentation.NewFormatter(w).FormatRepository(dto, format); err != nil {
		return presentation.RepositoryDTO{}, err
	}
	return dto, nil
}
