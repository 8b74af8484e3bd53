// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// descriptorView is the structured output of `warble webxml`.
type descriptorView struct {
	Booter        string            `json:"booter,omitempty" toml:"booter,omitempty"`
	Listener      string            `json:"servlet_context_listener" toml:"servlet_context_listener"`
	JNDI          []string          `json:"jndi,omitempty" toml:"jndi,omitempty"`
	ContextParams map[string]string `json:"context_params" toml:"context_params"`
}

func newWebXMLCommand(app *App, g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "webxml",
		Short: "Show the deployment descriptor parameters",
		Long: `Show the servlet context listener and the context parameters that the
deployment descriptor (web.xml) receives. Parameter names and values are
HTML-escaped; the booter and jndi keys are used by the descriptor itself
and are not emitted as parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := outputFormat(format)
			if err := f.Validate(); err != nil {
				return usageError(err)
			}
			r, err := app.resolve(cmd.Context(), g)
			if err != nil {
				return app.fail(err, g.verbose)
			}

			tree := r.build.WebXML
			view := descriptorView{
				Booter:        tree.Booter().String(),
				Listener:      tree.ServletContextListener(),
				JNDI:          tree.JNDI(),
				ContextParams: tree.ContextParams(),
			}
			if f != formatText {
				return encode(app.stdout, f, view)
			}

			fmt.Fprintf(app.stdout, "%s %s\n", KeyStyle.Render("listener:"), view.Listener)
			if len(view.JNDI) > 0 {
				fmt.Fprintf(app.stdout, "%s %s\n", KeyStyle.Render("jndi:"), strings.Join(view.JNDI, ", "))
			}
			writeParams(app.stdout, view.ContextParams)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(formatText), "output format (text, json, toml)")

	return cmd
}
