package repository

import (
	"context"
	"database/sql"

	"github.com/jask/webforge/internal/database"
	"github.com/jask/webforge/internal/model"
)

// CatalogRepo keeps the last successfully refreshed project list.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// Replace swaps the stored snapshot for entries, keeping their order.
func (r *CatalogRepo) Replace(ctx context.Context, entries []model.ProjectSummary) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_entries(position, project_id, prompt, framework, db_engine, version, premium, refreshed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		now := database.Now()
		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, i, e.ID, e.Prompt, string(e.Framework), string(e.Database), e.Version, e.Premium, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns the snapshot in stored order.
func (r *CatalogRepo) List(ctx context.Context) ([]model.ProjectSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT project_id, prompt, framework, db_engine, version, premium
	FROM catalog_entries ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ProjectSummary{}
	for rows.Next() {
		var e model.ProjectSummary
		var fw, db string
		if err := rows.Scan(&e.ID, &e.Prompt, &fw, &db, &e.Version, &e.Premium); err != nil {
			return nil, err
		}
		e.Framework, e.Database = model.Framework(fw), model.Database(db)
		out = append(out, e)
	}
	return out, rows.Err()
}
