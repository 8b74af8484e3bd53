// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/joho/godotenv"

	"github.com/warbler/warble/internal/config"
	"github.com/warbler/warble/internal/issue"
	"github.com/warbler/warble/internal/warblefile"
	"github.com/warbler/warble/internal/warconfig"
)

// DotEnvFile is read from the project root before resolution.
const DotEnvFile = ".env"

type (
	// App wires CLI services and shared dependencies. Command handlers receive
	// an App and resolve projects through it.
	App struct {
		Config ConfigProvider
		// Home is the tool's own directory, excluded from archives built
		// from a project that contains it.
		Home   string
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Home   string
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads the user configuration.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// globalFlags are the persistent flags shared by every command.
	globalFlags struct {
		dir        string
		configPath string
		verbose    bool
	}

	// resolved is a project resolution together with the settings it used.
	resolved struct {
		build   *warconfig.Config
		user    *config.Config
		verbose bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Home == "" {
		if exe, err := os.Executable(); err == nil {
			deps.Home = filepath.Dir(exe)
		}
	}

	return &App{
		Config: deps.Config,
		Home:   deps.Home,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// resolve loads the user configuration, the project .env and
// config/warble.cue, then builds the archive configuration.
func (a *App) resolve(ctx context.Context, g *globalFlags) (*resolved, error) {
	root, err := filepath.Abs(g.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, issue.NewErrorContext().
			WithOperation("open project").
			WithResource(root).
			WithSuggestion("Pass the project root with --dir").
			Wrap(fmt.Errorf("not a directory: %s", root)).
			BuildError()
	}

	userCfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: g.configPath})
	if err != nil {
		return nil, err
	}
	verbose := g.verbose || userCfg.UI.Verbose
	logger := a.newLogger(verbose)

	dotenv, err := godotenv.Read(filepath.Join(root, DotEnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ignoring unreadable .env", "err", err)
	}
	logger.Debug("resolving project", "root", root, "dotenv", len(dotenv))

	projectFS := osfs.New(root)
	overrides, err := warblefile.Load(projectFS)
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		logger.Debug("loaded project overrides", "path", overrides.Path())
	}

	build, err := warconfig.New(ctx, warconfig.Options{
		ProjectRoot:               root,
		FS:                        projectFS,
		WarblerHome:               a.Home,
		Getenv:                    lookupEnv(dotenv),
		DisableFrameworkDetection: !userCfg.FrameworkDetection,
		Override: func(c *warconfig.Config) error {
			c.Bundler = userCfg.Bundler
			c.ExcludeLogs = userCfg.ExcludeLogs
			return overrides.Apply(c)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return &resolved{build: build, user: userCfg, verbose: verbose}, nil
}

// newLogger returns the logger handed to the resolver. Detection misses are
// only visible at debug level.
func (a *App) newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "warble",
		Level:  level,
	})
}

// lookupEnv prefers the process environment and falls back to .env values,
// matching godotenv.Load without mutating the process.
func lookupEnv(dotenv map[string]string) func(string) string {
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}
}
