package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/webforge/internal/app"
	"github.com/jask/webforge/internal/catalog"
	"github.com/jask/webforge/internal/config"
	"github.com/jask/webforge/internal/model"
	"github.com/jask/webforge/internal/present"
	"github.com/jask/webforge/internal/service"
)

// App is the interactive builder.
type App struct {
	ctx         context.Context
	rt          *app.App
	maintenance *service.MaintenanceService
	cfg         config.Config

	state  appState
	modal  modalState
	status string

	prompt    string
	framework int
	database  int
	template  int

	inputBuffer string
	search      string
	cursor      int
}

type appState string

const (
	viewBuilder  appState = "builder"
	viewPreview  appState = "preview"
	viewProjects appState = "projects"
)

type modalState string

const (
	modalNone         modalState = ""
	modalEditPrompt   modalState = "editPrompt"
	modalSearch       modalState = "search"
	modalConfirmReset modalState = "confirmReset"
)

func New(ctx context.Context, cfg config.Config, rt *app.App, maintenance *service.MaintenanceService) *App {
	return &App{
		ctx:         ctx,
		rt:          rt,
		maintenance: maintenance,
		cfg:         cfg,
		state:       viewBuilder,
		prompt:      cfg.Form.Prompt,
		framework:   indexOf(model.Frameworks, model.Framework(cfg.Form.Framework)),
		database:    indexOf(model.Databases, model.Database(cfg.Form.Database)),
		template:    indexOf(model.Templates, model.Template(cfg.Form.Template)),
	}
}

func (a *App) Init() tea.Cmd {
	return a.startCmd()
}

func (a *App) startCmd() tea.Cmd {
	return func() tea.Msg {
		if err := a.rt.Start(a.ctx); err != nil {
			return errMsg{err}
		}
		return syncedMsg{}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		switch m.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "b":
			a.state = viewBuilder
		case "v":
			a.state = viewPreview
		case "l":
			a.state = viewProjects
			a.cursor = 0
		case "e":
			a.modal = modalEditPrompt
			a.inputBuffer = a.prompt
		case "/":
			a.modal = modalSearch
			a.inputBuffer = a.search
		case "f":
			a.framework = (a.framework + 1) % len(model.Frameworks)
		case "s":
			a.database = (a.database + 1) % len(model.Databases)
		case "t":
			a.template = (a.template + 1) % len(model.Templates)
		case "1":
			a.status = "logging in..."
			return a, a.demoLoginCmd(model.PlanFree)
		case "2":
			a.status = "logging in..."
			return a, a.demoLoginCmd(model.PlanPremium)
		case "o":
			return a, a.logoutCmd()
		case "g":
			a.status = "generating..."
			return a, a.generateCmd()
		case "r":
			a.status = "rebuilding..."
			return a, a.rebuildCmd()
		case "d":
			a.status = "deploying..."
			return a, a.deployCmd()
		case "w":
			return a, a.downloadCmd()
		case "R":
			a.modal = modalConfirmReset
		case "up", "k":
			if a.state == viewProjects && a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.state == viewProjects && a.cursor < len(a.matches())-1 {
				a.cursor++
			}
		}
	case opDoneMsg:
		a.status = m.status
		if m.show != "" {
			a.state = m.show
		}
		return a, a.waitCmd()
	case syncedMsg:
		if a.cursor >= len(a.matches()) {
			a.cursor = 0
		}
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.state {
	case viewPreview:
		body = a.renderPreview()
	case viewProjects:
		body = a.renderProjects()
	default:
		body = a.renderBuilder()
	}
	if a.modal != modalNone {
		body += "\n\n" + a.renderModal()
	}
	return body
}

// request builds a generation request from the current form. The
// orchestrator validates it after checking the session.
func (a *App) request() model.GenerationRequest {
	return model.GenerationRequest{
		Prompt:    a.prompt,
		Framework: model.Frameworks[a.framework],
		Database:  model.Databases[a.database],
		Template:  model.Templates[a.template],
	}
}

// commands
func (a *App) generateCmd() tea.Cmd {
	req := a.request()
	return func() tea.Msg {
		p, err := a.rt.Generate(a.ctx, req)
		if err != nil {
			return errMsg{err}
		}
		a.saveForm(req)
		return opDoneMsg{status: fmt.Sprintf("generated %s (%s)", p.ID, present.Version(p.Version)), show: viewPreview}
	}
}

func (a *App) rebuildCmd() tea.Cmd {
	return func() tea.Msg {
		p, err := a.rt.Rebuild(a.ctx)
		if errors.Is(err, model.ErrSuperseded) {
			return opDoneMsg{status: "rebuild finished for a replaced project; ignored"}
		}
		if err != nil {
			return errMsg{err}
		}
		return opDoneMsg{status: fmt.Sprintf("Rebuilt to version %d", p.Version)}
	}
}

func (a *App) deployCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := a.rt.Deploy(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		if res.Superseded {
			return opDoneMsg{status: "deployed " + res.ProjectID + " (no longer active): " + res.URL}
		}
		return opDoneMsg{status: "Deployed to: " + res.URL}
	}
}

func (a *App) downloadCmd() tea.Cmd {
	return func() tea.Msg {
		url, err := a.rt.Download(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return opDoneMsg{status: "download: " + url}
	}
}

func (a *App) demoLoginCmd(plan model.Plan) tea.Cmd {
	return func() tea.Msg {
		email, err := a.rt.Accounts.DemoLogin(a.ctx, plan)
		if err != nil {
			return errMsg{err}
		}
		return opDoneMsg{status: "logged in as " + email}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		if err := a.rt.Accounts.Logout(a.ctx); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{status: "logged out"}
	}
}

func (a *App) resetCmd() tea.Cmd {
	return func() tea.Msg {
		if a.maintenance == nil {
			return statusMsg("reset unavailable")
		}
		if err := a.maintenance.Reset(a.ctx); err != nil {
			return errMsg{err}
		}
		return statusMsg("local cache cleared")
	}
}

// waitCmd re-renders once background catalog refreshes land.
func (a *App) waitCmd() tea.Cmd {
	return func() tea.Msg {
		a.rt.Wait()
		return syncedMsg{}
	}
}

// saveForm remembers the submitted form for the next session.
func (a *App) saveForm(req model.GenerationRequest) {
	cfg := a.cfg
	cfg.Form = config.FormConfig{
		Prompt:    req.Prompt,
		Framework: string(req.Framework),
		Database:  string(req.Database),
		Template:  string(req.Template),
	}
	_ = config.Save(cfg)
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalConfirmReset:
		switch m.String() {
		case "y":
			a.modal = modalNone
			return a, a.resetCmd()
		default:
			a.modal = modalNone
		}
		return a, nil
	}

	switch m.Type {
	case tea.KeyEsc:
		a.modal = modalNone
		a.inputBuffer = ""
	case tea.KeyEnter:
		switch a.modal {
		case modalEditPrompt:
			a.prompt = strings.TrimSpace(a.inputBuffer)
		case modalSearch:
			a.search = strings.TrimSpace(a.inputBuffer)
			a.state = viewProjects
			a.cursor = 0
		}
		a.modal = modalNone
		a.inputBuffer = ""
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(a.inputBuffer) > 0 {
			r := []rune(a.inputBuffer)
			a.inputBuffer = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.inputBuffer += " "
	case tea.KeyRunes:
		a.inputBuffer += string(m.Runes)
	}
	return a, nil
}

func (a *App) matches() []catalog.Match {
	return a.rt.Catalog.Search(a.search)
}

type opDoneMsg struct {
	status string
	show   appState
}

type syncedMsg struct{}

type statusMsg string

type errMsg struct{ error }

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return 0
}
