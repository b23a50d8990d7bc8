package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/webforge/internal/database"
	"github.com/jask/webforge/internal/database/repository"
	"github.com/jask/webforge/internal/model"
)

type fakeLister struct {
	mu    sync.Mutex
	calls int
	items []model.ProjectSummary
	err   error
	hook  func(call int)
}

func (f *fakeLister) ListProjects(_ context.Context, token string) ([]model.ProjectSummary, error) {
	f.mu.Lock()
	f.calls++
	call, items, err, hook := f.calls, f.items, f.err, f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return items, err
}

var (
	sess  = model.Session{Token: "tok"}
	blog  = model.ProjectSummary{ID: "p1", Prompt: "blog site", Framework: model.FrameworkReact, Database: model.DatabaseSQLite, Version: 1}
	shop  = model.ProjectSummary{ID: "p2", Prompt: "ecommerce shop for shoes", Framework: model.FrameworkNext, Database: model.DatabasePostgres, Version: 3, Premium: true}
	admin = model.ProjectSummary{ID: "p3", Prompt: "Admin dashboard", Framework: model.FrameworkReact, Database: model.DatabaseMongoDB, Version: 2}
)

func TestRefreshReplacesInServiceOrder(t *testing.T) {
	t.Parallel()

	l := &fakeLister{items: []model.ProjectSummary{shop, blog}}
	c := New(l)
	require.Zero(t, c.Len())

	require.NoError(t, c.Refresh(context.Background(), sess))
	require.Equal(t, []model.ProjectSummary{shop, blog}, c.Entries())

	l.items = []model.ProjectSummary{admin}
	require.NoError(t, c.Refresh(context.Background(), sess))
	require.Equal(t, []model.ProjectSummary{admin}, c.Entries())

	got, ok := c.Lookup("p3")
	require.True(t, ok)
	require.Equal(t, admin, got)
	_, ok = c.Lookup("p1")
	require.False(t, ok)
}

func TestRefreshWithoutSessionEmpties(t *testing.T) {
	t.Parallel()

	l := &fakeLister{items: []model.ProjectSummary{blog}}
	c := New(l)
	require.NoError(t, c.Refresh(context.Background(), sess))
	require.Equal(t, 1, c.Len())

	require.NoError(t, c.Refresh(context.Background(), model.Session{}))
	require.Zero(t, c.Len())
	require.Equal(t, 1, l.calls, "no remote call without a session")
}

func TestRefreshFailureKeepsPreviousContents(t *testing.T) {
	t.Parallel()

	l := &fakeLister{items: []model.ProjectSummary{blog}}
	c := New(l)
	require.NoError(t, c.Refresh(context.Background(), sess))

	l.err = &model.RemoteError{Op: "list projects", Status: 502}
	err := c.Refresh(context.Background(), sess)
	require.ErrorIs(t, err, model.ErrRemoteFailure)
	require.Equal(t, []model.ProjectSummary{blog}, c.Entries())
}

func TestOlderRefreshCompletingLateIsDiscarded(t *testing.T) {
	t.Parallel()

	firstStarted := make(chan struct{})
	release := make(chan struct{})
	l := &fakeLister{}
	l.hook = func(call int) {
		if call == 1 {
			close(firstStarted)
			<-release
		}
	}
	c := New(l)

	l.items = []model.ProjectSummary{blog}
	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background(), sess) }()
	<-firstStarted

	l.mu.Lock()
	l.items = []model.ProjectSummary{blog, shop}
	l.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background(), sess))
	close(release)
	require.NoError(t, <-done)

	require.Equal(t, []model.ProjectSummary{blog, shop}, c.Entries())
}

func TestForgetDiscardsEarlierRefreshes(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	l := &fakeLister{items: []model.ProjectSummary{blog}}
	c := New(l)
	require.NoError(t, c.Refresh(context.Background(), sess))
	require.Equal(t, 1, c.Len())

	l.mu.Lock()
	l.hook = func(call int) {
		if call == 2 {
			close(started)
			<-release
		}
	}
	l.mu.Unlock()
	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background(), sess) }()
	<-started

	c.Forget()
	require.Zero(t, c.Len())
	close(release)
	require.NoError(t, <-done)
	require.Zero(t, c.Len())

	require.NoError(t, c.Refresh(context.Background(), sess))
	require.Equal(t, []model.ProjectSummary{blog}, c.Entries())
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()

	c := New(&fakeLister{items: []model.ProjectSummary{blog}})
	require.NoError(t, c.Refresh(context.Background(), sess))
	e := c.Entries()
	e[0].Version = 99
	require.Equal(t, 1, c.Entries()[0].Version)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repository.NewCatalogRepo(db)
	ctx := context.Background()

	c := New(&fakeLister{items: []model.ProjectSummary{shop, blog}}, WithSnapshot(repo))
	require.NoError(t, c.Refresh(ctx, sess))

	fresh := New(&fakeLister{err: errors.New("offline")}, WithSnapshot(repo))
	require.NoError(t, fresh.Load(ctx))
	require.Equal(t, []model.ProjectSummary{shop, blog}, fresh.Entries())

	require.Error(t, fresh.Refresh(ctx, sess))
	require.Equal(t, 2, fresh.Len())

	require.NoError(t, fresh.Refresh(ctx, model.Session{}))
	stored, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestLoadDoesNotOverrideRefresh(t *testing.T) {
	t.Parallel()

	snap := &memSnapshot{entries: []model.ProjectSummary{admin}}
	c := New(&fakeLister{items: []model.ProjectSummary{blog}})
	require.NoError(t, c.Refresh(context.Background(), sess))
	c.snap = snap
	require.NoError(t, c.Load(context.Background()))
	require.Equal(t, []model.ProjectSummary{blog}, c.Entries())
}

type memSnapshot struct {
	entries []model.ProjectSummary
}

func (m *memSnapshot) Replace(_ context.Context, e []model.ProjectSummary) error {
	m.entries = e
	return nil
}

func (m *memSnapshot) List(context.Context) ([]model.ProjectSummary, error) {
	return m.entries, nil
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c := New(&fakeLister{items: []model.ProjectSummary{blog, shop, admin}})
	require.NoError(t, c.Refresh(context.Background(), sess))

	ids := func(ms []Match) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.Entry.ID)
		}
		return out
	}

	require.Equal(t, []string{"p1", "p2", "p3"}, ids(c.Search("")))
	require.Equal(t, []string{"p3"}, ids(c.Search("dashboard")))
	require.Equal(t, []string{"p3"}, ids(c.Search("DASHBORD")), "typo tolerated")
	require.Equal(t, []string{"p2"}, ids(c.Search("shoe")))
	require.Empty(t, c.Search("kubernetes"))
}
