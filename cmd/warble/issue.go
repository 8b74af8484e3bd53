// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/warbler/warble/internal/config"
	"github.com/warbler/warble/internal/issue"
)

func newIssueCommand(app *App, g *globalFlags) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "issue [id|name]",
		Short: "Explain a warble error",
		Long: `Render the guidance page for an error. Without arguments, list the
known issues. Errors printed by other commands name the page to read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintf(app.stdout, "%3d  %s\n", i.Id(), KeyStyle.Render(i.Name()))
				}
				return nil
			}

			i := lookupIssue(args[0])
			if i == nil {
				return fmt.Errorf("unknown issue %q (run 'warble issue' for the list)", args[0])
			}

			if style == "" {
				style = string(config.ColorSchemeAuto)
				if cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: g.configPath}); err == nil {
					style = cfg.UI.ColorScheme.GlamourStyle()
				}
			}
			out, err := i.Render(style)
			if err != nil {
				return fmt.Errorf("render issue %s: %w", i.Name(), err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style (auto, dark, light, notty)")

	return cmd
}

func lookupIssue(arg string) *issue.Issue {
	if n, err := strconv.Atoi(arg); err == nil {
		return issue.Get(issue.Id(n))
	}
	i, _ := issue.Lookup(arg)
	return i
}
