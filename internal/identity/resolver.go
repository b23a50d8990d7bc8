// Package identity resolves the logged-in user from a session token.
package identity

import (
	"context"

	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/model"
)

// WhoAmI is the remote identity lookup.
type WhoAmI interface {
	WhoAmI(ctx context.Context, token string) (model.Identity, error)
}

// Resolver turns a Session into an Identity. Login state is advisory: every
// failure reads as "not logged in".
type Resolver struct {
	Remote WhoAmI
}

func NewResolver(remote WhoAmI) *Resolver {
	return &Resolver{Remote: remote}
}

// Resolve returns nil for an absent session without calling the service,
// and nil when the lookup fails or reports an unknown plan.
func (r *Resolver) Resolve(ctx context.Context, sess model.Session) *model.Identity {
	if !sess.Present() {
		return nil
	}
	id, err := r.Remote.WhoAmI(ctx, sess.Token)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("identity lookup failed", "error", err)
		return nil
	}
	if _, err := model.ParsePlan(string(id.Plan)); err != nil {
		ctxlog.FromContext(ctx).Warn("identity has unknown plan", "plan", id.Plan)
		return nil
	}
	return &id
}
