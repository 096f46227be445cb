package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clsforge/internal/catalog"
	"github.com/zjrosen/clsforge/internal/infrastructure/sqlite"
	"github.com/zjrosen/clsforge/internal/log"
	"github.com/zjrosen/clsforge/internal/presentation"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the SQLite part catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import YAML part files into the catalog database",
	Long: `Import YAML part files into the catalog database.

Each file names its project. Parts are replaced by project, name and
document id, so re-importing an edited file updates it in place. All
parts of one file are written in a single transaction.

Example:
  clsforge catalog import parts/arm.yaml parts/table.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalogDB(func(repo *sqlite.CatalogRepository) error {
			return importFiles(cmd.Context(), repo, args, os.Stdout)
		})
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in the catalog database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCatalogDB(func(repo *sqlite.CatalogRepository) error {
			projects, err := repo.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return presentation.NewFormatter(os.Stdout).FormatProjects(projects)
		})
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT",
	Short: "Delete a project and its parts from the catalog database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalogDB(func(repo *sqlite.CatalogRepository) error {
			n, err := repo.DeleteProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(os.Stdout, "deleted %d parts from %s\n", n, args[0])
			return err
		})
	},
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd, catalogListCmd, catalogDeleteCmd)
	rootCmd.AddCommand(catalogCmd)
}

func withCatalogDB(fn func(*sqlite.CatalogRepository) error) error {
	db, err := sqlite.NewDB(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("opening catalog database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(db.CatalogRepository())
}

// importFiles stores every part of every file. Files are loaded and
// validated before anything is written.
func importFiles(ctx context.Context, repo *sqlite.CatalogRepository, paths []string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	projects := make([]catalog.Project, 0, len(paths))
	for _, path := range paths {
		p, err := catalog.LoadYAMLFile(path)
		if err != nil {
			return err
		}
		projects = append(projects, p)
	}
	for i, p := range projects {
		if err := repo.SaveParts(ctx, p.ID, p.Parts...); err != nil {
			return fmt.Errorf("importing %s: %w", paths[i], err)
		}
		log.Info(log.CatCatalog, "Imported parts", "file", paths[i], "project", p.ID, "parts", len(p.Parts))
		if _, err := fmt.Fprintf(w, "imported %d parts into %s\n", len(p.Parts), p.ID); err != nil {
			return err
		}
	}
	return nil
}
