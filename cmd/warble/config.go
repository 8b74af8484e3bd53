// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warbler/warble/internal/config"
	"github.com/warbler/warble/internal/warconfig"
)

// newConfigCommand creates the `warble config` command tree. The command
// itself prints the resolved archive configuration; subcommands manage the
// user configuration file.
func newConfigCommand(app *App, g *globalFlags) *cobra.Command {
	var (
		format       string
		watchProject bool
	)

	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved archive configuration",
		Long: `Show the resolved archive configuration of the project.

The result combines built-in defaults, framework detection, Gemfile.lock and
config/warble.cue. User preferences are stored in:
  - Linux: ~/.config/warble/config.cue
  - macOS: ~/Library/Application Support/warble/config.cue
  - Windows: %APPDATA%\warble\config.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := outputFormat(format)
			if err := f.Validate(); err != nil {
				return usageError(err)
			}
			show := func(r *resolved) error {
				s := r.build.Snapshot()
				if f == formatText {
					writeSnapshotText(app.stdout, s)
					return nil
				}
				return encode(app.stdout, f, s)
			}

			r, err := app.resolve(cmd.Context(), g)
			if err != nil {
				return app.fail(err, g.verbose)
			}
			if err := show(r); err != nil {
				return err
			}
			if !watchProject {
				return nil
			}
			return app.watch(cmd.Context(), g, show)
		},
	}
	cfgCmd.Flags().StringVarP(&format, "format", "f", string(formatText), "output format (text, json, toml)")
	cfgCmd.Flags().BoolVarP(&watchProject, "watch", "w", false, "print the configuration again whenever project inputs change")

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default user configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath != "" {
				fmt.Fprintln(app.stdout, g.configPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective user configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: g.configPath})
			if err != nil {
				return app.fail(err, g.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func writeSnapshotText(w io.Writer, s warconfig.Snapshot) {
	fmt.Fprintln(w, TitleStyle.Render(s.WarName))
	field := func(key, value string) {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(key+":"), value)
	}
	list := func(key string, values []string) {
		field(key, strings.Join(values, ", "))
	}

	field("booter", s.Booter)
	field("listener", s.Listener)
	field("gem_path", s.GemPath)
	field("gem_dependencies", fmt.Sprint(s.GemDependencies))
	field("bundler", fmt.Sprint(s.Bundler))
	field("exclude_logs", fmt.Sprint(s.ExcludeLogs))
	list("features", s.Features)
	list("dirs", s.Dirs)
	list("includes", s.Includes)
	list("excludes", s.Excludes)
	list("java_libs", s.JavaLibs)
	list("java_classes", s.JavaClasses)
	list("public_html", s.PublicHTML)
	list("webinf_files", s.WebinfFiles)
	if s.ManifestFile != "" {
		field("manifest_file", s.ManifestFile)
	}
	if s.AutodeployDir != "" {
		field("autodeploy_dir", s.AutodeployDir)
	}

	fmt.Fprintln(w, SubtitleStyle.Render("gems"))
	for _, d := range s.Gems {
		if d.Constraint == "" {
			fmt.Fprintf(w, "  %s\n", d.Name)
		} else {
			fmt.Fprintf(w, "  %s (%s)\n", d.Name, d.Constraint)
		}
	}

	fmt.Fprintln(w, SubtitleStyle.Render("pathmaps"))
	for _, cat := range slices.Sorted(maps.Keys(s.Pathmaps)) {
		fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(cat+":"), strings.Join(s.Pathmaps[cat], ", "))
	}

	fmt.Fprintln(w, SubtitleStyle.Render("context params"))
	writeParams(w, s.ContextParams)
}

func writeParams(w io.Writer, params map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(params)) {
		fmt.Fprintf(w, "  %s = %s\n", KeyStyle.Render(k), params[k])
	}
}
