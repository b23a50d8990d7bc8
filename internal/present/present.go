// Package present projects orchestrator and catalog state into display
// values. Nothing here mutates core state.
package present

import (
	"fmt"
	"strings"

	"github.com/jask/webforge/internal/entitlement"
	"github.com/jask/webforge/internal/model"
	"github.com/jask/webforge/internal/orchestrator"
)

const emptyPreview = "No project yet. Generate to see preview."

// Input is everything a view is derived from.
type Input struct {
	Identity *model.Identity
	Active   *model.Project
	State    orchestrator.State
	Catalog  []model.ProjectSummary
}

// View is a renderable projection of Input.
type View struct {
	Header   Header
	Project  string // one-line description of the active project, empty when none
	Preview  string
	Rows     []Row
	Count    string
	Controls Controls
	Status   string
}

type Header struct {
	LoggedIn bool
	Email    string
	Plan     string
	Premium  bool
}

// Row is one catalog entry.
type Row struct {
	ID      string
	Title   string
	Stack   string
	Version string
	Premium bool
}

// Controls says which actions should be offered. Entitlement is still
// enforced by the orchestrator; these are hints only.
type Controls struct {
	Generate bool
	Rebuild  bool
	Download bool
	Deploy   bool
}

func Render(in Input) View {
	v := View{
		Header:   HeaderFor(in.Identity),
		Preview:  Preview(in.Active),
		Rows:     CatalogRows(in.Catalog),
		Count:    Count(len(in.Catalog)),
		Controls: ControlsFor(in.State, in.Active != nil, in.Identity),
		Status:   in.State.String(),
	}
	if in.Active != nil {
		v.Project = fmt.Sprintf("%s  %s  %s", in.Active.ID, Stack(in.Active.Framework, in.Active.Database), Version(in.Active.Version))
	}
	return v
}

func HeaderFor(id *model.Identity) Header {
	if id == nil {
		return Header{}
	}
	return Header{
		LoggedIn: true,
		Email:    id.Email,
		Plan:     string(id.Plan),
		Premium:  entitlement.IsPremium(id),
	}
}

// Preview renders every frontend file as "// path" followed by its content,
// separated by blank lines.
func Preview(p *model.Project) string {
	if p == nil {
		return emptyPreview
	}
	parts := make([]string, 0, len(p.Files.Frontend))
	for _, f := range p.Files.Frontend {
		parts = append(parts, "// "+f.Path+"\n"+f.Content)
	}
	return strings.Join(parts, "\n\n")
}

func CatalogRows(entries []model.ProjectSummary) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			ID:      e.ID,
			Title:   e.Prompt,
			Stack:   Stack(e.Framework, e.Database),
			Version: Version(e.Version),
			Premium: e.Premium,
		})
	}
	return rows
}

func Count(n int) string { return fmt.Sprintf("%d total", n) }

func Stack(f model.Framework, d model.Database) string {
	return string(f) + " + " + string(d)
}

func Version(v int) string { return fmt.Sprintf("v%d", v) }

// ControlsFor disables everything but generate while a sub-operation is in
// flight, since generate may replace the project at any time.
func ControlsFor(s orchestrator.State, hasProject bool, id *model.Identity) Controls {
	idle := !s.Busy()
	sub := hasProject && idle
	return Controls{
		Generate: entitlement.CanGenerate(id) && s != orchestrator.Generating,
		Rebuild:  sub && entitlement.CanRebuild(id),
		Download: sub && entitlement.CanDownload(id),
		Deploy:   sub && entitlement.CanDeploy(id),
	}
}
