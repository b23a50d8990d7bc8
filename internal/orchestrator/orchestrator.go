package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jask/webforge/internal/builder"
	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/database/repository"
	"github.com/jask/webforge/internal/entitlement"
	"github.com/jask/webforge/internal/model"
)

// Backend is the subset of the builder service the orchestrator drives.
type Backend interface {
	Generate(ctx context.Context, token string, req model.GenerationRequest) (model.Project, error)
	Rebuild(ctx context.Context, token, id string) (builder.RebuildResult, error)
	Deploy(ctx context.Context, token, id string) (string, error)
	DownloadURL(id, token string) string
}

// Refresher reloads the project catalog.
type Refresher interface {
	Refresh(ctx context.Context, sess model.Session) error
}

// ActiveStore persists the active project across processes.
type ActiveStore interface {
	SaveActive(ctx context.Context, p model.Project) error
	LoadActive(ctx context.Context) (*model.Project, error)
	RecordVersion(ctx context.Context, projectID string, version int, source string) error
}

// DeployResult is the outcome of a deploy call. Superseded is set when the
// active project was replaced while the call was in flight.
type DeployResult struct {
	ProjectID  string
	URL        string
	Superseded bool
}

type Option func(*Orchestrator)

// WithStore persists the active project and its versions in s.
func WithStore(s ActiveStore) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithHandoff sets where download URLs are sent.
func WithHandoff(h Handoff) Option {
	return func(o *Orchestrator) { o.handoff = h }
}

// ticket identifies the project a sub-operation was issued against.
type ticket struct {
	id    string
	epoch uint64
}

// Orchestrator owns the active project and sequences remote operations
// against it.
//
// Rebuild, deploy and download hold opMu for their whole duration so at most
// one is in flight. Generate never takes opMu; when it replaces the active
// project the epoch advances and any outstanding sub-operation completion is
// discarded on arrival.
type Orchestrator struct {
	backend Backend
	catalog Refresher
	store   ActiveStore
	handoff Handoff

	opMu sync.Mutex

	// persistMu orders writes to the store so the last write wins only
	// for the project that is still active.
	persistMu sync.Mutex

	mu         sync.Mutex
	active     *model.Project
	epoch      uint64
	busy       State
	pendingGen int
	genIssued  uint64
	genApplied uint64

	refreshes sync.WaitGroup
}

// New builds an orchestrator. catalog may be nil.
func New(backend Backend, catalog Refresher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		catalog: catalog,
		handoff: noopHandoff{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State derives the lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() State {
	switch {
	case o.pendingGen > 0:
		return Generating
	case o.busy != Idle:
		return o.busy
	case o.active != nil:
		return Ready
	default:
		return Idle
	}
}

// Active returns a copy of the active project.
func (o *Orchestrator) Active() (model.Project, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return model.Project{}, false
	}
	return cloneProject(*o.active), true
}

// Wait blocks until every catalog refresh triggered so far has finished.
func (o *Orchestrator) Wait() {
	o.refreshes.Wait()
}

// Restore loads the persisted active project, if any. It does nothing once
// a project is already active.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	p, err := o.store.LoadActive(ctx)
	if err != nil {
		return fmt.Errorf("load active project: %w", err)
	}
	if p == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		o.active = p
		o.epoch++
	}
	return nil
}

// Forget drops the active project. Sub-operations in flight complete as
// superseded; a generate still in flight installs its result as usual.
func (o *Orchestrator) Forget() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = nil
	o.epoch++
}

// Generate submits req and, on success, replaces the active project with the
// result.
func (o *Orchestrator) Generate(ctx context.Context, req model.GenerationRequest, sess model.Session) (model.Project, error) {
	if !sess.Present() {
		return model.Project{}, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return model.Project{}, err
	}

	o.mu.Lock()
	o.pendingGen++
	o.genIssued++
	seq := o.genIssued
	o.mu.Unlock()

	log := ctxlog.FromContext(ctx)
	p, err := o.backend.Generate(ctx, sess.Token, req)

	o.mu.Lock()
	o.pendingGen--
	if err != nil {
		o.mu.Unlock()
		log.Warn("generate failed", "error", err)
		return model.Project{}, fmt.Errorf("generate: %w", err)
	}
	if seq < o.genApplied {
		// A later generate already replaced the project.
		o.mu.Unlock()
		log.Info("discarding superseded generate", "id", p.ID)
		return p, model.ErrSuperseded
	}
	o.genApplied = seq
	o.active = &p
	o.epoch++
	t := ticket{id: p.ID, epoch: o.epoch}
	o.mu.Unlock()

	log.Info("project generated", "id", p.ID, "version", p.Version)
	o.persist(ctx, t, p, repository.SourceGenerate)
	o.refreshCatalog(ctx, sess)
	return cloneProject(p), nil
}

// Rebuild asks the service to rebuild the active project. Only the version
// (and files, when returned) change.
func (o *Orchestrator) Rebuild(ctx context.Context, sess model.Session) (model.Project, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	t, err := o.begin(Rebuilding, sess, nil)
	if err != nil {
		return model.Project{}, err
	}
	defer o.finish()

	log := ctxlog.FromContext(ctx).With("id", t.id)
	res, err := o.backend.Rebuild(ctx, sess.Token, t.id)
	if err != nil {
		log.Warn("rebuild failed", "error", err)
		return model.Project{}, fmt.Errorf("rebuild %s: %w", t.id, err)
	}

	o.mu.Lock()
	if !o.currentLocked(t) {
		o.mu.Unlock()
		log.Info("discarding rebuild for replaced project")
		return model.Project{}, model.ErrSuperseded
	}
	if res.Version <= o.active.Version {
		prev := o.active.Version
		o.mu.Unlock()
		return model.Project{}, &model.RemoteError{
			Op:  "rebuild",
			Err: fmt.Errorf("version %d does not advance %d", res.Version, prev),
		}
	}
	next := cloneProject(*o.active)
	next.Version = res.Version
	if res.Files != nil {
		next.Files = *res.Files
	}
	o.active = &next
	o.mu.Unlock()

	log.Info("project rebuilt", "version", next.Version)
	o.persist(ctx, t, next, repository.SourceRebuild)
	o.refreshCatalog(ctx, sess)
	return cloneProject(next), nil
}

// Deploy publishes the active project. The returned URL is not stored.
func (o *Orchestrator) Deploy(ctx context.Context, sess model.Session, id *model.Identity) (DeployResult, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	t, err := o.begin(Deploying, sess, func() error {
		return entitlement.Check(entitlement.ActionDeploy, id)
	})
	if err != nil {
		return DeployResult{}, err
	}
	defer o.finish()

	log := ctxlog.FromContext(ctx).With("id", t.id)
	url, err := o.backend.Deploy(ctx, sess.Token, t.id)
	if err != nil {
		log.Warn("deploy failed", "error", err)
		return DeployResult{}, fmt.Errorf("deploy %s: %w", t.id, err)
	}

	res := DeployResult{ProjectID: t.id, URL: url}
	o.mu.Lock()
	res.Superseded = !o.currentLocked(t)
	o.mu.Unlock()
	log.Info("project deployed", "url", url, "superseded", res.Superseded)
	return res, nil
}

// Download hands the packaging URL for the active project to the configured
// Handoff and returns it.
func (o *Orchestrator) Download(ctx context.Context, sess model.Session) (string, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	t, err := o.begin(Downloading, sess, nil)
	if err != nil {
		return "", err
	}
	defer o.finish()

	url := o.backend.DownloadURL(t.id, sess.Token)
	if err := o.handoff.Open(ctx, url); err != nil {
		return "", fmt.Errorf("download %s: %w", t.id, err)
	}
	return url, nil
}

// begin checks the shared preconditions in order, then marks the sub-operation
// in flight. gate runs last and only when the earlier checks pass.
func (o *Orchestrator) begin(s State, sess model.Session, gate func() error) (ticket, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return ticket{}, model.ErrNoActiveProject
	}
	if !sess.Present() {
		return ticket{}, model.ErrUnauthenticated
	}
	if gate != nil {
		if err := gate(); err != nil {
			return ticket{}, err
		}
	}
	o.busy = s
	return ticket{id: o.active.ID, epoch: o.epoch}, nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.busy = Idle
	o.mu.Unlock()
}

func (o *Orchestrator) currentLocked(t ticket) bool {
	return o.active != nil && o.active.ID == t.id && o.epoch == t.epoch
}

// persist is best effort: the service remains the source of truth. The
// active slot is only written while p is still the active project at the
// version t was issued for; the version history is always recorded.
func (o *Orchestrator) persist(ctx context.Context, t ticket, p model.Project, source string) {
	if o.store == nil {
		return
	}
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	log := ctxlog.FromContext(ctx)
	o.mu.Lock()
	current := o.currentLocked(t) && o.active.Version == p.Version
	o.mu.Unlock()
	if !current {
		log.Info("skipping save of replaced project", "id", p.ID, "version", p.Version)
	} else if err := o.store.SaveActive(ctx, p); err != nil {
		log.Warn("save active project", "id", p.ID, "error", err)
	}
	if err := o.store.RecordVersion(ctx, p.ID, p.Version, source); err != nil {
		log.Warn("record project version", "id", p.ID, "error", err)
	}
}

func (o *Orchestrator) refreshCatalog(ctx context.Context, sess model.Session) {
	if o.catalog == nil {
		return
	}
	rctx := context.WithoutCancel(ctx)
	o.refreshes.Add(1)
	go func() {
		defer o.refreshes.Done()
		if err := o.catalog.Refresh(rctx, sess); err != nil {
			ctxlog.FromContext(rctx).Warn("catalog refresh failed", "error", err)
		}
	}()
}

func cloneProject(p model.Project) model.Project {
	if p.Files.Frontend != nil {
		files := make([]model.File, len(p.Files.Frontend))
		copy(files, p.Files.Frontend)
		p.Files.Frontend = files
	}
	return p
}
