// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/warbler/warble/internal/watch"
)

// watch re-resolves the project after every batch of changes and hands the
// result to show. It returns when ctx is cancelled.
func (a *App) watch(ctx context.Context, g *globalFlags, show func(*resolved) error) error {
	root, err := filepath.Abs(g.dir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}
	logger := a.newLogger(g.verbose)

	w, err := watch.New(watch.Options{
		Dir:    root,
		Logger: logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(a.stderr, SubtitleStyle.Render("changed: "+strings.Join(changed, ", ")))
			r, err := a.resolve(ctx, g)
			if err != nil {
				renderHints(a.stderr, err, g.verbose)
				return err
			}
			return show(r)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stderr, SubtitleStyle.Render("watching "+root+" (Ctrl+C to stop)"))
	return w.Run(ctx)
}
