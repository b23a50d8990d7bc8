package orchestrator

import "context"

// Handoff receives the packaging URL for a download. The orchestrator does
// not await or interpret the archive itself.
type Handoff interface {
	Open(ctx context.Context, url string) error
}

// HandoffFunc adapts a function to Handoff.
type HandoffFunc func(ctx context.Context, url string) error

func (f HandoffFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

type noopHandoff struct{}

func (noopHandoff) Open(context.Context, string) error { return nil }
