package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jask/webforge/internal/app"
	"github.com/jask/webforge/internal/builder"
	"github.com/jask/webforge/internal/catalog"
	"github.com/jask/webforge/internal/config"
	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/database"
	"github.com/jask/webforge/internal/database/repository"
	"github.com/jask/webforge/internal/identity"
	"github.com/jask/webforge/internal/orchestrator"
	"github.com/jask/webforge/internal/service"
	"github.com/jask/webforge/internal/session"
)

// env is everything a command needs, built once per invocation.
type env struct {
	ctx         context.Context
	cfg         config.Config
	db          *sql.DB
	logFile     io.Closer
	client      *builder.Client
	projects    *repository.ProjectRepo
	maintenance *service.MaintenanceService
	handoff     *downloadHandoff
	app         *app.App
}

func setup(parent context.Context) (*env, error) {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	e := &env{cfg: cfg}
	logOut := io.Writer(os.Stderr)
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logOut, e.logFile = f, f
	}
	e.ctx = ctxlog.WithLogger(parent, ctxlog.New(logOut, cfg.Log.Level))

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	e.db = db

	e.client = builder.New(cfg.Backend.URL, cfg.Backend.Timeout,
		builder.WithRateLimit(cfg.Backend.RatePerSecond, cfg.Backend.Burst))
	e.projects = repository.NewProjectRepo(db)
	e.handoff = &downloadHandoff{client: e.client, stdout: os.Stdout}

	store := session.NewStore(cfg.Session.Dir)
	cat := catalog.New(e.client, catalog.WithSnapshot(repository.NewCatalogRepo(db)))
	projects := orchestrator.New(e.client, cat,
		orchestrator.WithStore(e.projects),
		orchestrator.WithHandoff(e.handoff))
	e.maintenance = &service.MaintenanceService{DB: db, Mirrors: []service.Forgetter{cat, projects}}
	e.app = app.New(app.Deps{
		Session:  store,
		Resolver: identity.NewResolver(e.client),
		Catalog:  cat,
		Projects: projects,
		Accounts: &service.AccountService{Remote: e.client, Session: store},
	})
	return e, nil
}

// start restores local state and syncs identity and catalog.
func (e *env) start() error {
	return e.app.Start(e.ctx)
}

func (e *env) Close() {
	if e.app != nil {
		e.app.Wait()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}
