package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/webforge/internal/database"
	"github.com/jask/webforge/internal/model"
)

// ProjectRepo persists the active project and its version history.
type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// SaveActive stores p as the single active project.
func (r *ProjectRepo) SaveActive(ctx context.Context, p model.Project) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO active_project(slot, project_id, payload, updated_at)
	VALUES (1, ?, ?, ?)
	ON CONFLICT(slot) DO UPDATE SET
	 project_id=excluded.project_id,
	 payload=excluded.payload,
	 updated_at=excluded.updated_at;
	`, p.ID, string(payload), database.Now())
	return err
}

// LoadActive returns the stored active project, or nil when none is stored.
func (r *ProjectRepo) LoadActive(ctx context.Context) (*model.Project, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM active_project WHERE slot = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Project
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return &p, nil
}

// ClearActive forgets the active project.
func (r *ProjectRepo) ClearActive(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM active_project`)
	return err
}

// RecordVersion notes that projectID was observed at version. Recording the
// same version twice is a no-op.
func (r *ProjectRepo) RecordVersion(ctx context.Context, projectID string, version int, source string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO project_versions(id, project_id, version, source, observed_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(project_id, version) DO NOTHING;
	`, uuid.NewString(), projectID, version, source, database.Now())
	return err
}

// History lists recorded versions of projectID, oldest first.
func (r *ProjectRepo) History(ctx context.Context, projectID string) ([]VersionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, project_id, version, source, observed_at
	FROM project_versions WHERE project_id = ? ORDER BY version`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VersionRecord
	for rows.Next() {
		var v VersionRecord
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.Version, &v.Source, &v.ObservedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
