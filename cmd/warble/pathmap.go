// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warbler/warble/internal/issue"
	"github.com/warbler/warble/pkg/pathmap"
)

func newPathmapCommand(app *App, g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "pathmap <category> <source>...",
		Short: "Show where project files land in the archive",
		Long: `Map project-relative paths through a pathmap category.

Categories: ` + strings.Join(categoryNames(), ", ") + `

The first template of the category decides the archive path. With --all every
template of the category is applied.`,
		Args: cobra.MinimumNArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return categoryNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			category := pathmap.Category(args[0])
			if err := category.Validate(); err != nil {
				return usageError(app.fail(issue.NewErrorContext().
					WithOperation("map paths").
					WithResource(args[0]).
					WithSuggestion("Use one of: "+strings.Join(categoryNames(), ", ")).
					WithIssue(issue.UnknownCategoryId).
					Wrap(err).
					BuildError(), g.verbose))
			}

			r, err := app.resolve(cmd.Context(), g)
			if err != nil {
				return app.fail(err, g.verbose)
			}

			for _, src := range args[1:] {
				if !all {
					dst, err := r.build.Resolve(category, src)
					if err != nil {
						return app.fail(pathmapError(src, err), g.verbose)
					}
					fmt.Fprintf(app.stdout, "%s -> %s\n", src, dst)
					continue
				}
				dsts, err := r.build.Pathmaps.ApplyAll(category, src)
				if err != nil {
					return app.fail(pathmapError(src, err), g.verbose)
				}
				for _, dst := range dsts {
					fmt.Fprintf(app.stdout, "%s -> %s\n", src, dst)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "apply every template of the category")

	return cmd
}

func pathmapError(src string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("map path").
		WithResource(src).
		Wrap(err)
	if errors.Is(err, pathmap.ErrInvalidTemplate) {
		ctx = ctx.WithIssue(issue.InvalidPathmapId)
	}
	return ctx.BuildError()
}

func categoryNames() []string {
	cats := pathmap.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return names
}
