package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/database"
)

// Forgetter is an in-memory cache backed by one of the cleared tables.
type Forgetter interface {
	Forget()
}

// localCache lists what a reset removes, children before parents.
var localCache = []struct {
	table string
	what  string
}{
	{"project_versions", "version history"},
	{"active_project", "active project"},
	{"catalog_entries", "catalog snapshot"},
}

// MaintenanceService clears webforge's local sqlite cache. The session
// token and everything stored by the builder service survive a reset.
type MaintenanceService struct {
	DB *sql.DB
	// Mirrors are emptied after the tables so a running process shows what
	// the next launch would restore.
	Mirrors []Forgetter
}

func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("reset local cache: no database")
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, c := range localCache {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+c.table); err != nil {
				return fmt.Errorf("clear %s: %w", c.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range s.Mirrors {
		m.Forget()
	}

	log := ctxlog.FromContext(ctx)
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		log.Warn("vacuum after reset", "error", err)
	}
	log.Info("local cache cleared")
	return nil
}
