// Package main is the webforge CLI and TUI entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	asJSON  bool
	rt      *env
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

// run executes one invocation and returns its exit code. The runtime is
// closed on every path, including failed commands.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	defer func() {
		if rt != nil {
			rt.Close()
			rt = nil
		}
	}()
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "webforge",
		Short: "Generate, rebuild and deploy websites from a prompt",
		Long: `webforge drives a hosted website builder.

Usage modes:
  webforge              Start the interactive builder
  webforge <command>    Run a single operation (see below)

Configuration is read from ~/.config/webforge/config.toml, WEBFORGE_* env
vars and an optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			rt = e
			cmd.SetContext(e.ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "project", Title: "Project:"},
		&cobra.Group{ID: "local", Title: "Local state:"},
	)

	for _, c := range []*cobra.Command{registerCmd(), loginCmd(), demoLoginCmd(), logoutCmd(), whoamiCmd()} {
		c.GroupID = "account"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{generateCmd(), rebuildCmd(), deployCmd(), downloadCmd(), previewCmd()} {
		c.GroupID = "project"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{projectsCmd(), historyCmd(), resetCmd()} {
		c.GroupID = "local"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(tuiCmd())
	return rootCmd
}
