package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/model"
	"github.com/jask/webforge/internal/present"
	"github.com/jask/webforge/internal/tui"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive builder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}
}

func runTUI(ctx context.Context) error {
	if rt.cfg.Log.File == "" {
		ctx = ctxlog.WithLogger(ctx, ctxlog.Discard())
	}
	rt.handoff.stdout = io.Discard
	p := tea.NewProgram(tui.New(ctx, rt.cfg, rt.app, rt.maintenance), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func registerCmd() *cobra.Command {
	var name, email, password, plan string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := rt.app.Accounts.Register(cmd.Context(), name, email, password, model.Plan(plan))
			if err != nil {
				return err
			}
			return output(u, func(w io.Writer) {
				fmt.Fprintf(w, "registered %s (%s)\n", u.Email, u.Plan)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&plan, "plan", string(model.PlanFree), "Plan: free, premium or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Accounts.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			return printIdentity()
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("WEBFORGE_PASSWORD"), "Account password (default $WEBFORGE_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func demoLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "demo-login [free|premium|admin]",
		Short:     "Register a throwaway demo account and log in",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"free", "premium", "admin"},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := model.PlanFree
			if len(args) == 1 {
				p, err := model.ParsePlan(args[0])
				if err != nil {
					return err
				}
				plan = p
			}
			if _, err := rt.app.Accounts.DemoLogin(cmd.Context(), plan); err != nil {
				return err
			}
			return printIdentity()
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.start(); err != nil {
				return err
			}
			return printIdentity()
		},
	}
}

func printIdentity() error {
	id := rt.app.Identity()
	return output(id, func(w io.Writer) {
		h := present.HeaderFor(id)
		if !h.LoggedIn {
			fmt.Fprintln(w, "not logged in")
			return
		}
		fmt.Fprintf(w, "%s [%s]\n", h.Email, h.Plan)
	})
}

// generationRequest carries the raw flag values; Generate validates them
// once the session is known to be present.
func generationRequest(prompt, framework, database, template string) model.GenerationRequest {
	return model.GenerationRequest{
		Prompt:    prompt,
		Framework: model.Framework(framework),
		Database:  model.Database(database),
		Template:  model.Template(template),
	}
}

func generateCmd() *cobra.Command {
	var framework, database, template string
	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Generate a new project from a prompt",
		Long: `Generate a new project. The prompt defaults to form.prompt from the
config. The new project replaces the active one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" {
				prompt = rt.cfg.Form.Prompt
			}
			if err := rt.start(); err != nil {
				return err
			}
			p, err := rt.app.Generate(cmd.Context(), generationRequest(prompt, framework, database, template))
			if err != nil {
				return err
			}
			return printProject(p)
		},
	}
	cmd.Flags().StringVarP(&framework, "framework", "f", "", "react or next (default form.framework)")
	cmd.Flags().StringVarP(&database, "database", "d", "", "mongodb, postgres, mysql, sqlite, firebase or supabase (default form.database)")
	cmd.Flags().StringVarP(&template, "template", "t", "", "basic, saas, ecommerce, dashboard, blog or portfolio (default form.template)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if framework == "" {
			framework = rt.cfg.Form.Framework
		}
		if database == "" {
			database = rt.cfg.Form.Database
		}
		if template == "" {
			template = rt.cfg.Form.Template
		}
	}
	return cmd
}

func rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.start(); err != nil {
				return err
			}
			p, err := rt.app.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			return printProject(p)
		},
	}
}

func deployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the active project (premium)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.start(); err != nil {
				return err
			}
			res, err := rt.app.Deploy(cmd.Context())
			if err != nil {
				return err
			}
			return output(res, func(w io.Writer) {
				fmt.Fprintf(w, "Deployed to: %s\n", res.URL)
			})
		},
	}
}

func downloadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Print the archive URL of the active project, or save it with --out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.start(); err != nil {
				return err
			}
			rt.handoff.out = out
			_, err := rt.app.Download(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Save the archive to this path")
	return cmd
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Print the active project's files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Projects.Restore(cmd.Context()); err != nil {
				return err
			}
			p, ok := rt.app.Projects.Active()
			if !ok {
				fmt.Println(present.Preview(nil))
				return nil
			}
			return output(p.Files, func(w io.Writer) {
				fmt.Fprintln(w, present.Preview(&p))
			})
		},
	}
}

func projectsCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.start(); err != nil {
				return err
			}
			matches := rt.app.Catalog.Search(search)
			entries := make([]model.ProjectSummary, 0, len(matches))
			for _, m := range matches {
				entries = append(entries, m.Entry)
			}
			return output(entries, func(w io.Writer) {
				fmt.Fprintf(w, "Projects (%s)\n", present.Count(rt.app.Catalog.Len()))
				for _, r := range present.CatalogRows(entries) {
					badge := ""
					if r.Premium {
						badge = "  Premium"
					}
					fmt.Fprintf(w, "%-12s %-40s %-20s %s%s\n", r.ID, r.Title, r.Stack, r.Version, badge)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Fuzzy match against prompts")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [project-id]",
		Short: "Show versions observed for a project (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				p, err := rt.projects.LoadActive(ctx)
				if err != nil {
					return err
				}
				if p == nil {
					return model.ErrNoActiveProject
				}
				id = p.ID
			}
			hist, err := rt.projects.History(ctx, id)
			if err != nil {
				return err
			}
			return output(hist, func(w io.Writer) {
				for _, h := range hist {
					fmt.Fprintf(w, "%s  %-4s %-9s %s\n", id, present.Version(h.Version), h.Source, h.ObservedAt.Local().Format("2006-01-02 15:04:05"))
				}
			})
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the local catalog snapshot, active project and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.maintenance.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("local cache cleared")
			return nil
		},
	}
}

func printProject(p model.Project) error {
	return output(p.Summary(), func(w io.Writer) {
		fmt.Fprintf(w, "%s  %s  %s  %d files\n", p.ID, present.Stack(p.Framework, p.Database), present.Version(p.Version), len(p.Files.Frontend))
	})
}

// output prints v as JSON under --json, otherwise calls text.
func output(v any, text func(w io.Writer)) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(os.Stdout)
	return nil
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return 2
	case errors.Is(err, model.ErrUnauthenticated):
		return 3
	case errors.Is(err, model.ErrNotEntitled):
		return 4
	case errors.Is(err, model.ErrNoActiveProject):
		return 5
	case errors.Is(err, model.ErrRemoteFailure):
		return 6
	default:
		return 1
	}
}
