package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/webforge/internal/model"
	"github.com/jask/webforge/internal/present"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	premiumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	previewStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (a *App) renderHeader(v present.View) string {
	title := titleStyle.Render("AI Website Builder")
	if !v.Header.LoggedIn {
		return title + "\n[1] Login as Free  [2] Login as Premium"
	}
	style := badgeStyle
	if v.Header.Premium {
		style = premiumStyle
	}
	return fmt.Sprintf("%s\n%s %s  [o] Logout", title, v.Header.Email, style.Render("["+v.Header.Plan+"]"))
}

func (a *App) renderBuilder() string {
	v := a.rt.View()
	out := a.renderHeader(v) + "\n\n"
	out += "Describe your website [e]\n" + dimStyle.Render(a.prompt) + "\n\n"
	out += fmt.Sprintf("Framework [f]: %s   Database [s]: %s   Template [t]: %s\n",
		present.FrameworkLabel(model.Frameworks[a.framework]),
		present.DatabaseLabel(model.Databases[a.database]),
		present.TemplateLabel(model.Templates[a.template]))
	if v.Project != "" {
		out += "Active: " + v.Project + "\n"
	}
	out += "\n" + controls(v.Controls)
	out += "\n[v] Preview  [l] Projects  [/] Search  [R] Reset cache  [q] Quit"
	return a.withStatus(out, v.Status)
}

func (a *App) renderPreview() string {
	v := a.rt.View()
	out := titleStyle.Render("Live Preview") + "\n"
	out += previewStyle.Render(v.Preview)
	out += "\n" + controls(v.Controls)
	out += "\n[b] Builder  [l] Projects  [q] Quit"
	return a.withStatus(out, v.Status)
}

func (a *App) renderProjects() string {
	v := a.rt.View()
	matches := a.matches()
	rows := make([]model.ProjectSummary, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, m.Entry)
	}
	out := titleStyle.Render("Projects") + "  " + dimStyle.Render(v.Count)
	if a.search != "" {
		out += "  " + dimStyle.Render(fmt.Sprintf("search %q: %d", a.search, len(rows)))
	}
	out += "\n"
	for i, r := range present.CatalogRows(rows) {
		marker := " "
		if i == a.cursor {
			marker = ">"
		}
		line := fmt.Sprintf("%s %-40s %-20s %s", marker, truncate(r.Title, 40), r.Stack, r.Version)
		if r.Premium {
			line += " " + premiumStyle.Render("Premium")
		}
		out += line + "\n"
	}
	out += "[b] Builder  [v] Preview  [/] Search  [q] Quit"
	return a.withStatus(out, v.Status)
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalEditPrompt:
		return titleStyle.Render("Edit prompt") + "\n" + a.inputBuffer + "_\n[enter] Save  [esc] Cancel"
	case modalSearch:
		return titleStyle.Render("Search projects") + "\n" + a.inputBuffer + "_\n[enter] Search  [esc] Cancel"
	case modalConfirmReset:
		return titleStyle.Render("Clear local cache?") + "\nCatalog snapshot, active project and version history are removed.\n[y] Yes  [any] No"
	}
	return ""
}

func (a *App) withStatus(out, state string) string {
	line := "state: " + state
	if a.status != "" {
		line += "  " + a.status
	}
	return out + "\n" + dimStyle.Render(line)
}

func controls(c present.Controls) string {
	parts := []string{
		control("[g] Generate", c.Generate),
		control("[r] Rebuild", c.Rebuild),
		control("[w] Download", c.Download),
		control("[d] Deploy", c.Deploy),
	}
	return strings.Join(parts, "  ")
}

func control(label string, enabled bool) string {
	if enabled {
		return label
	}
	return disabledStyle.Render(label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
