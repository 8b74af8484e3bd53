// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/warbler/warble/internal/detect"
	"github.com/warbler/warble/internal/issue"
	"github.com/warbler/warble/internal/manifest"
	"github.com/warbler/warble/pkg/depset"
	"github.com/warbler/warble/pkg/fspath"
	"github.com/warbler/warble/pkg/paramtree"
	"github.com/warbler/warble/pkg/pathmap"
)

const (
	// LogExcludePattern excludes log files when ExcludeLogs is set.
	LogExcludePattern = "**/*.log"
	// PublicHTMLPattern is the default public asset glob.
	PublicHTMLPattern = "public/**/*"
	// RailsEnvVar supplies the default rails.env descriptor parameter.
	RailsEnvVar = "RAILS_ENV"
	// DefaultRailsEnv is used when RAILS_ENV is unset.
	DefaultRailsEnv = "production"
	// WebXMLRoot is the key of the descriptor parameter tree.
	WebXMLRoot = "webxml"
)

// topDirs are the project directories packaged when they exist.
var topDirs = []string{"app", "config", "lib", "log", "vendor"}

type (
	// Config is the resolved build configuration of one archive.
	Config struct {
		// WarName is the archive name without extension.
		WarName string
		// GemPath is the in-archive gem directory, always starting with "/"
		// once New returns.
		GemPath string
		// GemDependencies includes the dependencies of listed gems.
		GemDependencies bool
		// ExcludeLogs adds LogExcludePattern to Excludes.
		ExcludeLogs bool
		// Bundler resolves gems from Gemfile.lock when a Gemfile exists.
		Bundler  bool
		Features []Feature

		Dirs        []string
		Includes    []string
		Excludes    []string
		JavaLibs    []string
		JavaClasses []string
		PublicHTML  []string
		WebinfFiles []string

		// ManifestFile is an optional MANIFEST.MF template.
		ManifestFile string
		// AutodeployDir is where the archive is written; empty means the
		// project root.
		AutodeployDir string

		Pathmaps *pathmap.Set
		WebXML   *paramtree.Tree
		Gems     *depset.Set

		// Framework records the detection outcome.
		Framework detect.Outcome

		fs             billy.Filesystem
		root           string
		defaultGemPath string
		logger         *log.Logger
	}

	// Options are the inputs of New.
	Options struct {
		// ProjectRoot is the project directory. Defaults to the working directory.
		ProjectRoot string
		// FS reads the project. Defaults to an OS filesystem rooted at ProjectRoot.
		FS billy.Filesystem
		// WarblerHome is the tool's own directory. It is excluded from the
		// archive when it lies inside the project.
		WarblerHome string
		// DefaultGemPath is the gem path templates are seeded with.
		// Defaults to DefaultGemPath.
		DefaultGemPath string
		// RuntimeJars seed JavaLibs.
		RuntimeJars []string
		// Getenv reads environment variables. Defaults to os.Getenv.
		Getenv func(string) string

		// DisableFrameworkDetection skips the detection cascade.
		DisableFrameworkDetection bool
		// Probes replace the default rails, merb and rack probes.
		Probes []detect.Probe
		// Override mutates the configuration after detection.
		Override func(*Config) error
		// Manifest resolves bundled gems. Defaults to a Bundler over FS.
		Manifest manifest.Resolver

		// Logger receives progress at debug level. Nil discards.
		Logger *log.Logger
	}
)

// New resolves the configuration for a project.
func New(ctx context.Context, opts Options) (*Config, error) {
	c, err := seed(opts)
	if err != nil {
		return nil, err
	}

	if !opts.DisableFrameworkDetection {
		probes := opts.Probes
		if probes == nil {
			probes = detect.DefaultProbes(c.fs)
		}
		c.Framework = detect.NewCascade(c.logger, probes...).Run(ctx, c.target())
	}

	if opts.Override != nil {
		if err := opts.Override(c); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("apply configuration overrides").
				WithSuggestion("Check config/warble.cue for invalid values").
				WithIssue(issue.WarblefileParseErrorId).
				Wrap(err).
				BuildError()
		}
	}
	if err := c.validateFeatures(); err != nil {
		return nil, err
	}

	if err := c.relocateGemPath(); err != nil {
		return nil, err
	}

	resolver := opts.Manifest
	if resolver == nil {
		resolver = manifest.NewBundler(c.fs)
	}
	if err := c.resolveBundledGems(ctx, resolver); err != nil {
		return nil, err
	}

	c.appendExcludes(opts.WarblerHome)
	return c, nil
}

// seed builds the defaults every configuration starts from.
func seed(opts Options) (*Config, error) {
	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve project root: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	fs := opts.FS
	if fs == nil {
		fs = osfs.New(root)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	defaultGemPath := opts.DefaultGemPath
	if defaultGemPath == "" {
		defaultGemPath = DefaultGemPath
	}

	c := &Config{
		WarName:         filepath.Base(root),
		GemPath:         defaultGemPath,
		GemDependencies: true,
		ExcludeLogs:     true,
		Bundler:         true,
		Features:        []Feature{},
		Includes:        []string{},
		Excludes:        []string{},
		JavaLibs:        slices.Clone(opts.RuntimeJars),
		JavaClasses:     []string{},
		PublicHTML:      []string{PublicHTMLPattern},
		Gems:            depset.New(),
		fs:              fs,
		root:            root,
		defaultGemPath:  defaultGemPath,
		logger:          logger,
	}

	c.Dirs = []string{}
	for _, d := range topDirs {
		if fspath.IsDir(fs, d) {
			c.Dirs = append(c.Dirs, d)
		}
	}
	logger.Debug("project directories", "dirs", c.Dirs)

	c.Pathmaps = pathmap.DefaultSet(c.RelativeGemPath())

	c.WebXML = paramtree.New(WebXMLRoot)
	railsEnv := getenv(RailsEnvVar)
	if railsEnv == "" {
		railsEnv = DefaultRailsEnv
	}
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"rails.env", railsEnv},
		{"public.root", "/"},
		{paramtree.JNDIKey, nil},
	} {
		if err := c.WebXML.Set(kv.key, kv.value); err != nil {
			return nil, fmt.Errorf("seed descriptor parameters: %w", err)
		}
	}
	c.WebXML.SetIgnored(paramtree.JNDIKey, paramtree.BooterKey)

	c.WebinfFiles = []string{defaultWebinfFile(fs, opts.WarblerHome)}
	return c, nil
}

func defaultWebinfFile(fs billy.Filesystem, home string) string {
	for _, f := range []string{"config/web.xml", "config/web.xml.erb"} {
		if fspath.IsFile(fs, f) {
			return f
		}
	}
	if home == "" {
		return "web.xml.erb"
	}
	return filepath.ToSlash(filepath.Join(home, "web.xml.erb"))
}

func (c *Config) target() *detect.Target {
	return &detect.Target{FS: c.fs, WebXML: c.WebXML, Gems: c.Gems, Dirs: &c.Dirs}
}

func (c *Config) validateFeatures() error {
	var errs []error
	for _, f := range c.Features {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("validate features").
		WithSuggestion("The only supported feature is " + string(FeatureGemJar)).
		Wrap(errors.Join(errs...)).
		BuildError()
}

// resolveBundledGems replaces the gem list with the manifest's resolution
// when Bundler is enabled and the project has a Gemfile.
func (c *Config) resolveBundledGems(ctx context.Context, resolver manifest.Resolver) error {
	if !c.Bundler || resolver == nil || !fspath.IsFile(c.fs, manifest.GemfileName) {
		c.Bundler = false
		return nil
	}

	c.Gems.Clear()
	c.GemDependencies = false

	envOpts := manifest.EnvironmentOptions{GemPath: c.GemPath, SuppressAutoReload: true}
	if err := resolver.WriteEnvironment(ctx, envOpts); err != nil {
		return manifestError("write bundle environment", manifest.EnvironmentPath(envOpts), err)
	}

	deps, err := resolver.ResolvedDependencies(ctx)
	if err != nil {
		return manifestError("resolve bundled gems", manifest.LockfileName, err)
	}
	for _, d := range deps {
		c.Gems.Add(d.Name, d.Constraint)
	}
	c.logger.Debug("bundled gems resolved", "count", c.Gems.Len())
	return nil
}

func manifestError(op, resource string, err error) error {
	id := issue.ManifestResolveFailedId
	if errors.Is(err, manifest.ErrLockfileNotFound) {
		id = issue.LockfileMissingId
	}
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		WithSuggestion("Run 'bundle install' to refresh " + manifest.LockfileName).
		WithSuggestion("Set bundler: false in config/warble.cue to package gems without Bundler").
		WithIssue(id).
		Wrap(err).
		BuildError()
}

// FS returns the project filesystem.
func (c *Config) FS() billy.Filesystem { return c.fs }

// Root returns the absolute project directory.
func (c *Config) Root() string { return c.root }

// DefaultGemPath returns the gem path the templates were seeded with.
func (c *Config) DefaultGemPath() string { return c.defaultGemPath }

// Resolve maps a project-relative source path through a pathmap category.
func (c *Config) Resolve(category pathmap.Category, src string) (string, error) {
	return c.Pathmaps.Apply(category, path.Clean(filepath.ToSlash(src)))
}
