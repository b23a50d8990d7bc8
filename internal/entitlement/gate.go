// Package entitlement decides which actions a resolved identity may take.
// Every function treats a nil identity as "not logged in".
package entitlement

import (
	"fmt"

	"github.com/jask/webforge/internal/model"
)

// Action is a gated operation.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionRebuild  Action = "rebuild"
	ActionDeploy   Action = "deploy"
	ActionDownload Action = "download"
)

// IsPremium is true iff the plan is premium or admin.
func IsPremium(id *model.Identity) bool {
	if id == nil {
		return false
	}
	return id.Plan == model.PlanPremium || id.Plan == model.PlanAdmin
}

func CanDeploy(id *model.Identity) bool { return IsPremium(id) }

func CanGenerate(id *model.Identity) bool { return id != nil }

func CanRebuild(id *model.Identity) bool { return id != nil }

func CanDownload(id *model.Identity) bool { return id != nil }

// Allowed reports whether id may perform action.
func Allowed(action Action, id *model.Identity) bool {
	switch action {
	case ActionDeploy:
		return CanDeploy(id)
	case ActionGenerate:
		return CanGenerate(id)
	case ActionRebuild:
		return CanRebuild(id)
	case ActionDownload:
		return CanDownload(id)
	}
	return false
}

// Check returns an error wrapping model.ErrNotEntitled when action is not
// allowed.
func Check(action Action, id *model.Identity) error {
	if Allowed(action, id) {
		return nil
	}
	plan := "anonymous"
	if id != nil {
		plan = string(id.Plan)
	}
	return fmt.Errorf("%s on %s plan: %w", action, plan, model.ErrNotEntitled)
}
