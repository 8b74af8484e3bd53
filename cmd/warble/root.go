// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/warbler/warble/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the warble command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "warble",
		Short: "Resolve the web archive layout of a Ruby project",
		Long: TitleStyle.Render("warble") + SubtitleStyle.Render(" - web archive layout for Rack, Rails and Merb projects") + `

warble works out which files of a Ruby web project go into a Java web
archive, where they land, and which servlet context parameters the
deployment descriptor gets. The framework is detected from the project
(config/environment.rb, config/init.rb or config.ru) and gems are taken
from Gemfile.lock when the project uses Bundler.

Project settings can be overridden in config/warble.cue.

` + SubtitleStyle.Render("Examples:") + `
  warble config                    Show the resolved configuration
  warble config --format toml      The same, as TOML
  warble webxml                    Show servlet context parameters
  warble pathmap gems rack.gemspec Show where a file lands in the archive
  warble issue invalid-gem-path    Explain an error`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default is $HOME/.config/warble/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(newConfigCommand(app, g))
	rootCmd.AddCommand(newWebXMLCommand(app, g))
	rootCmd.AddCommand(newPathmapCommand(app, g))
	rootCmd.AddCommand(newIssueCommand(app, g))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// fail prints the suggestions and issue pointer of an actionable error and
// returns it for cobra to report.
func (a *App) fail(err error, verbose bool) error {
	renderHints(a.stderr, err, verbose)
	return err
}

func renderHints(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	if verbose {
		fmt.Fprintln(w, formatErrorForDisplay(err, true))
	} else {
		for _, s := range ae.Suggestions {
			fmt.Fprintln(w, WarningStyle.Render("  • ")+s)
		}
	}
	if i := issue.Get(ae.IssueID); i != nil {
		fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("Run 'warble issue %s' for details.", i.Name())))
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
