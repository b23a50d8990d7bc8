package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/model"
)

// Lister fetches the caller's projects from the builder service.
type Lister interface {
	ListProjects(ctx context.Context, token string) ([]model.ProjectSummary, error)
}

// Snapshot stores the last good catalog locally.
type Snapshot interface {
	Replace(ctx context.Context, entries []model.ProjectSummary) error
	List(ctx context.Context) ([]model.ProjectSummary, error)
}

type Option func(*Catalog)

// WithSnapshot mirrors every applied refresh into s.
func WithSnapshot(s Snapshot) Option {
	return func(c *Catalog) { c.snap = s }
}

// Catalog is a best-effort cache of the projects the service reports. It is
// never authoritative and may lag behind a mutation until the next refresh.
type Catalog struct {
	remote Lister
	snap   Snapshot

	mu      sync.RWMutex
	entries []model.ProjectSummary
	issued  uint64
	applied uint64

	snapMu      sync.Mutex
	snapApplied uint64
}

func New(remote Lister, opts ...Option) *Catalog {
	c := &Catalog{remote: remote}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh replaces the catalog with the service's list, in service order.
// An absent session empties it. On failure the previous contents are kept
// and the error is returned for logging only.
func (c *Catalog) Refresh(ctx context.Context, sess model.Session) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	if !sess.Present() {
		c.apply(ctx, seq, []model.ProjectSummary{})
		return nil
	}

	list, err := c.remote.ListProjects(ctx, sess.Token)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	c.apply(ctx, seq, list)
	return nil
}

func (c *Catalog) apply(ctx context.Context, seq uint64, list []model.ProjectSummary) {
	log := ctxlog.FromContext(ctx)
	entries := make([]model.ProjectSummary, len(list))
	copy(entries, list)

	c.mu.Lock()
	if seq < c.applied {
		c.mu.Unlock()
		log.Debug("discarding stale catalog refresh", "seq", seq)
		return
	}
	c.applied = seq
	c.entries = entries
	c.mu.Unlock()
	log.Debug("catalog refreshed", "entries", len(entries))

	if c.snap == nil {
		return
	}
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	if seq < c.snapApplied {
		return
	}
	c.snapApplied = seq
	if err := c.snap.Replace(ctx, entries); err != nil {
		log.Warn("save catalog snapshot", "error", err)
	}
}

// Load seeds the catalog from the local snapshot. It is a no-op once any
// refresh has been applied.
func (c *Catalog) Load(ctx context.Context) error {
	if c.snap == nil {
		return nil
	}
	list, err := c.snap.List(ctx)
	if err != nil {
		return fmt.Errorf("load catalog snapshot: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied == 0 {
		c.entries = list
	}
	return nil
}

// Forget empties the catalog. Refreshes issued before the call are
// discarded when they land.
func (c *Catalog) Forget() {
	c.mu.Lock()
	c.issued++
	c.applied = c.issued
	seq := c.applied
	c.entries = nil
	c.mu.Unlock()

	c.snapMu.Lock()
	c.snapApplied = seq
	c.snapMu.Unlock()
}

// Entries returns a copy of the catalog in service order.
func (c *Catalog) Entries() []model.ProjectSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.ProjectSummary, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup finds an entry by project id.
func (c *Catalog) Lookup(id string) (model.ProjectSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.ProjectSummary{}, false
}
