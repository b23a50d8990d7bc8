// Package app wires the session, identity, catalog and orchestrator into one
// runtime shared by the CLI and the TUI.
package app

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jask/webforge/internal/catalog"
	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/identity"
	"github.com/jask/webforge/internal/model"
	"github.com/jask/webforge/internal/orchestrator"
	"github.com/jask/webforge/internal/present"
	"github.com/jask/webforge/internal/service"
	"github.com/jask/webforge/internal/session"
)

// Deps are the components the runtime coordinates.
type Deps struct {
	Session  *session.Store
	Resolver *identity.Resolver
	Catalog  *catalog.Catalog
	Projects *orchestrator.Orchestrator
	Accounts *service.AccountService
}

// App holds the resolved identity and routes session changes to the
// identity resolver and the catalog.
type App struct {
	Deps

	mu       sync.RWMutex
	identity *model.Identity
	issued   uint64
	applied  uint64
}

// New builds the runtime. Account flows are hooked so that every session
// change re-resolves identity and refreshes the catalog.
func New(d Deps) *App {
	a := &App{Deps: d}
	if d.Accounts != nil {
		d.Accounts.OnChange = func(ctx context.Context, sess model.Session) {
			_ = a.Sync(ctx, sess)
		}
	}
	return a
}

// Start restores local state and then resolves identity and refreshes the
// catalog concurrently. Local restore problems are logged, not fatal.
func (a *App) Start(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)

	sess, err := a.Session.Restore()
	if err != nil {
		log.Warn("restore session, continuing logged out", "error", err)
		sess = model.Session{}
	}
	if err := a.Catalog.Load(ctx); err != nil {
		log.Warn("load catalog snapshot", "error", err)
	}
	if err := a.Projects.Restore(ctx); err != nil {
		log.Warn("restore active project", "error", err)
	}
	return a.Sync(ctx, sess)
}

// Sync re-derives identity and catalog from sess. Both are best effort, so
// the only error is a cancelled context.
func (a *App) Sync(ctx context.Context, sess model.Session) error {
	a.mu.Lock()
	a.issued++
	seq := a.issued
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.setIdentity(seq, a.Resolver.Resolve(gctx, sess))
		return nil
	})
	g.Go(func() error {
		if err := a.Catalog.Refresh(gctx, sess); err != nil {
			ctxlog.FromContext(gctx).Warn("catalog refresh failed", "error", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (a *App) setIdentity(seq uint64, id *model.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq < a.applied {
		return
	}
	a.applied = seq
	a.identity = id
}

// Identity is the last resolved identity, nil when logged out or unresolved.
func (a *App) Identity() *model.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.identity == nil {
		return nil
	}
	id := *a.identity
	return &id
}

func (a *App) Generate(ctx context.Context, req model.GenerationRequest) (model.Project, error) {
	return a.Projects.Generate(ctx, req, a.Session.Current())
}

func (a *App) Rebuild(ctx context.Context) (model.Project, error) {
	return a.Projects.Rebuild(ctx, a.Session.Current())
}

func (a *App) Deploy(ctx context.Context) (orchestrator.DeployResult, error) {
	return a.Projects.Deploy(ctx, a.Session.Current(), a.Identity())
}

func (a *App) Download(ctx context.Context) (string, error) {
	return a.Projects.Download(ctx, a.Session.Current())
}

// Wait blocks until background catalog refreshes have finished.
func (a *App) Wait() {
	a.Projects.Wait()
}

// Snapshot gathers what the presentation layer needs.
func (a *App) Snapshot() present.Input {
	in := present.Input{
		Identity: a.Identity(),
		State:    a.Projects.State(),
		Catalog:  a.Catalog.Entries(),
	}
	if p, ok := a.Projects.Active(); ok {
		in.Active = &p
	}
	return in
}

// View renders the current snapshot.
func (a *App) View() present.View {
	return present.Render(a.Snapshot())
}
