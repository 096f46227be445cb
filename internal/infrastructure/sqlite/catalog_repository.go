package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zjrosen/clsforge/internal/catalog"
	"github.com/zjrosen/clsforge/internal/log"
)

// ProjectSummary describes a stored project.
type ProjectSummary struct {
	Project string
	Parts   int
}

// CatalogRepository implements catalog.Catalog over SQLite.
type CatalogRepository struct {
	db *sql.DB
}

var _ catalog.Catalog = (*CatalogRepository)(nil)

func newCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// SaveParts stores parts under project in one transaction. A part with the
// same project, name and forge document id replaces the stored one.
func (r *CatalogRepository) SaveParts(ctx context.Context, project string, parts ...catalog.PartDescriptor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, part := range parts {
		if err := part.Validate(); err != nil {
			return fmt.Errorf("save part %q: %w", part.Meta.Name, err)
		}
		if err := savePart(ctx, tx, project, part, now); err != nil {
			return fmt.Errorf("save part %q: %w", part.Meta.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit parts: %w", err)
	}
	log.Debug(log.CatDB, "Saved parts", "project", project, "count", len(parts))
	return nil
}

// SavePart stores a single part.
func (r *CatalogRepository) SavePart(ctx context.Context, project string, part catalog.PartDescriptor) error {
	return r.SaveParts(ctx, project, part)
}

func savePart(ctx context.Context, tx *sql.Tx, project string, part catalog.PartDescriptor, now int64) error {
	// Joint origins and configurations cascade.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM parts WHERE project = ? AND name = ? AND forge_document_id = ?`,
		project, part.Meta.Name, part.Meta.ForgeDocumentID,
	); err != nil {
		return fmt.Errorf("failed to replace part: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO parts (project, name, forge_document_id, forge_folder_id, forge_project_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		project, part.Meta.Name, part.Meta.ForgeDocumentID, part.Meta.ForgeFolderID, part.Meta.ForgeProjectID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert part: %w", err)
	}
	partID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for pos, id := range part.JointOrder {
		m, err := toJointOriginModel(part.JointOrigins[id], pos)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO joint_origins (part_id, jo_id, position, requires, provides, motion, count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			partID, m.ID, m.Position, m.Requires, m.Provides, m.Motion, m.Count,
		); err != nil {
			return fmt.Errorf("failed to insert joint origin %q: %w", id, err)
		}
	}
	for pos, cfg := range part.Configurations {
		m, err := toConfigurationModel(cfg, pos)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO configurations (part_id, position, requires, provides) VALUES (?, ?, ?, ?)`,
			partID, m.Position, m.Requires, m.Provides,
		); err != nil {
			return fmt.Errorf("failed to insert configuration %d: %w", pos, err)
		}
	}
	return nil
}

// FetchPartsForProject loads and validates every part of project in
// insertion order. Returns ProjectNotFoundError if the project has no parts.
func (r *CatalogRepository) FetchPartsForProject(ctx context.Context, project string) ([]catalog.PartDescriptor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project, name, forge_document_id, forge_folder_id, forge_project_id, created_at
		 FROM parts WHERE project = ? ORDER BY id`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	var models []PartModel
	for rows.Next() {
		var m PartModel
		if err := rows.Scan(&m.ID, &m.Project, &m.Name, &m.ForgeDocumentID, &m.ForgeFolderID, &m.ForgeProjectID, &m.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		models = append(models, m)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parts: %w", err)
	}
	if len(models) == 0 {
		return nil, &ProjectNotFoundError{Project: project}
	}

	parts := make([]catalog.PartDescriptor, 0, len(models))
	for _, m := range models {
		part, err := r.loadPart(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("load part %q: %w", m.Name, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func (r *CatalogRepository) loadPart(ctx context.Context, m PartModel) (catalog.PartDescriptor, error) {
	joRows, err := r.db.QueryContext(ctx,
		`SELECT jo_id, position, requires, provides, motion, count
		 FROM joint_origins WHERE part_id = ? ORDER BY position`,
		m.ID,
	)
	if err != nil {
		return catalog.PartDescriptor{}, fmt.Errorf("failed to query joint origins: %w", err)
	}
	defer func() { _ = joRows.Close() }()

	var jos []catalog.JointOrigin
	for joRows.Next() {
		jm := JointOriginModel{PartID: m.ID}
		if err := joRows.Scan(&jm.ID, &jm.Position, &jm.Requires, &jm.Provides, &jm.Motion, &jm.Count); err != nil {
			return catalog.PartDescriptor{}, fmt.Errorf("failed to scan joint origin: %w", err)
		}
		jo, err := jm.toDomain()
		if err != nil {
			return catalog.PartDescriptor{}, err
		}
		jos = append(jos, jo)
	}
	if err := joRows.Err(); err != nil {
		return catalog.PartDescriptor{}, err
	}

	cfgRows, err := r.db.QueryContext(ctx,
		`SELECT position, requires, provides FROM configurations WHERE part_id = ? ORDER BY position`,
		m.ID,
	)
	if err != nil {
		return catalog.PartDescriptor{}, fmt.Errorf("failed to query configurations: %w", err)
	}
	defer func() { _ = cfgRows.Close() }()

	var configs []catalog.Configuration
	for cfgRows.Next() {
		cm := ConfigurationModel{PartID: m.ID}
		if err := cfgRows.Scan(&cm.Position, &cm.Requires, &cm.Provides); err != nil {
			return catalog.PartDescriptor{}, fmt.Errorf("failed to scan configuration: %w", err)
		}
		cfg, err := cm.toDomain()
		if err != nil {
			return catalog.PartDescriptor{}, err
		}
		configs = append(configs, cfg)
	}
	if err := cfgRows.Err(); err != nil {
		return catalog.PartDescriptor{}, err
	}

	// Validation happens here, at the catalog boundary, so stale rows never
	// reach the builder.
	return catalog.NewPartDescriptor(m.meta(), jos, configs)
}

// ListProjects returns every project with its part count, sorted by name.
func (r *CatalogRepository) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project, COUNT(*) FROM parts GROUP BY project ORDER BY project`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ProjectSummary
	for rows.Next() {
		var s ProjectSummary
		if err := rows.Scan(&s.Project, &s.Parts); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteProject removes every part of project and returns how many were
// removed. Returns ProjectNotFoundError if there were none.
func (r *CatalogRepository) DeleteProject(ctx context.Context, project string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parts WHERE project = ?`, project)
	if err != nil {
		return 0, fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return 0, &ProjectNotFoundError{Project: project}
	}
	log.Info(log.CatDB, "Deleted project", "project", project, "parts", n)
	return int(n), nil
}
