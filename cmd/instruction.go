package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clsforge/internal/assembly"
	"github.com/zjrosen/clsforge/internal/flags"
	"github.com/zjrosen/clsforge/internal/presentation"
)

var (
	instProject string
	instFiles   []string
	instStrict  bool
)

var instructionCmd = &cobra.Command{
	Use:   "instruction TERM_FILE",
	Short: "Turn a combinator term into an assembly instruction",
	Long: `Build the project repository, then apply the combinator term in
TERM_FILE to produce a nested assembly instruction as JSON.

A term names a combinator by key, key prefix or name[provides], with
its arguments in slot order:

  part: "base[floor]"
  args:
    - part: "link[a]"
      args:
        - part: "gripper[mount]"

Connector markers are kept in the instruction and excluded from the
part count.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cfg, instFiles)
		if err != nil {
			return err
		}
		defer func() { _ = env.Close() }()

		strict := instStrict || env.flags.Enabled(flags.FlagStrictMotion)
		return runInstruction(cmd.Context(), env, instProject, args[0], strict, os.Stdout)
	},
}

func init() {
	instructionCmd.Flags().StringVarP(&instProject, "project", "p", "", "project to build (required)")
	instructionCmd.Flags().StringArrayVarP(&instFiles, "file", "f", nil, "YAML catalog file, overrides the configured catalog (repeatable)")
	instructionCmd.Flags().BoolVar(&instStrict, "strict-motion", false, "reject motion mismatches between slots and inserted parts")
	_ = instructionCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(instructionCmd)
}

func runInstruction(ctx context.Context, env *environment, project, termPath string, strict bool, w io.Writer) error {
	f, err := os.Open(termPath) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return fmt.Errorf("open term: %w", err)
	}
	defer func() { _ = f.Close() }()
	term, err := assembly.LoadTerm(f)
	if err != nil {
		return err
	}

	repo, _, err := buildRepository(ctx, env, project)
	if err != nil {
		return err
	}
	inst, err := assembly.Build(repo, term, assembly.Options{StrictMotion: strict})
	if err != nil {
		return err
	}
	return presentation.NewFormatter(w).FormatInstruction(inst)
}
