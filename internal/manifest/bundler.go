// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pelletier/go-toml/v2"

	"github.com/warbler/warble/pkg/depset"
	"github.com/warbler/warble/pkg/fspath"
)

const (
	// GemfileName is the marker file that enables Bundler integration.
	GemfileName = "Gemfile"
	// LockfileName is the resolved manifest read by Bundler.
	LockfileName = "Gemfile.lock"

	// WarEnvironmentFile is written when auto-reload is suppressed, so Bundler
	// does not pick it up while the project is still being inspected.
	WarEnvironmentFile = ".bundle/war-environment.toml"
	// EnvironmentFile is the regular Bundler environment location.
	EnvironmentFile = ".bundle/environment.toml"
)

// ErrLockfileNotFound is returned when Gemfile.lock does not exist.
var ErrLockfileNotFound = errors.New("lockfile not found")

type (
	// Resolver supplies the resolved dependency list for a project.
	Resolver interface {
		WriteEnvironment(ctx context.Context, opts EnvironmentOptions) error
		ResolvedDependencies(ctx context.Context) ([]depset.Dependency, error)
	}

	// EnvironmentOptions configure WriteEnvironment.
	EnvironmentOptions struct {
		// GemPath is the in-archive directory the gems are packaged under.
		GemPath string
		// SuppressAutoReload writes the environment where Bundler will not
		// load it automatically.
		SuppressAutoReload bool
	}

	// BundlerOption configures a Bundler.
	BundlerOption func(*Bundler)

	// Bundler resolves dependencies from Gemfile.lock on a project filesystem.
	Bundler struct {
		fs       billy.Filesystem
		lockfile string
		excluded []string
	}

	// Environment is the content of a written environment file.
	Environment struct {
		GemPath     string             `toml:"gem_path"`
		BundledWith string             `toml:"bundled_with,omitempty"`
		Platforms   []string           `toml:"platforms,omitempty"`
		Specs       []EnvironmentEntry `toml:"specs"`
	}

	// EnvironmentEntry locates one packaged gem.
	EnvironmentEntry struct {
		Name    string     `toml:"name"`
		Version string     `toml:"version"`
		Source  SourceKind `toml:"source"`
		Path    string     `toml:"path"`
	}
)

// DefaultExcludedGems are build-tool gems never packaged into the archive.
func DefaultExcludedGems() []string {
	return []string{"warbler", "rake", "rcov"}
}

// WithLockfile reads the lockfile from name instead of Gemfile.lock.
func WithLockfile(name string) BundlerOption {
	return func(b *Bundler) { b.lockfile = name }
}

// WithExcludedGems replaces the list of gems left out of the archive.
func WithExcludedGems(names ...string) BundlerOption {
	return func(b *Bundler) { b.excluded = slices.Clone(names) }
}

// NewBundler creates a Bundler rooted at the project filesystem.
func NewBundler(fs billy.Filesystem, opts ...BundlerOption) *Bundler {
	b := &Bundler{
		fs:       fs,
		lockfile: LockfileName,
		excluded: DefaultExcludedGems(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Lockfile parses the project's lockfile.
func (b *Bundler) Lockfile() (*Lockfile, error) {
	f, err := b.fs.Open(b.lockfile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLockfileNotFound, b.lockfile)
		}
		return nil, fmt.Errorf("open %s: %w", b.lockfile, err)
	}
	defer f.Close()

	lock, err := ParseLockfile(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", b.lockfile, err)
	}
	return lock, nil
}

// ResolvedDependencies returns every packaged spec pinned to its resolved
// version, in lockfile order.
func (b *Bundler) ResolvedDependencies(ctx context.Context) ([]depset.Dependency, error) {
	specs, _, err := b.packagedSpecs(ctx)
	if err != nil {
		return nil, err
	}

	deps := make([]depset.Dependency, 0, len(specs))
	for _, s := range specs {
		deps = append(deps, depset.Dependency{Name: s.Name, Constraint: "= " + s.Version})
	}
	return deps, nil
}

// WriteEnvironment records where each packaged gem lives under opts.GemPath.
func (b *Bundler) WriteEnvironment(ctx context.Context, opts EnvironmentOptions) error {
	specs, lock, err := b.packagedSpecs(ctx)
	if err != nil {
		return err
	}

	gemPath := "/" + strings.TrimPrefix(opts.GemPath, "/")
	env := Environment{
		GemPath:     gemPath,
		BundledWith: lock.BundledWith,
		Platforms:   lock.Platforms,
		Specs:       make([]EnvironmentEntry, 0, len(specs)),
	}
	for _, s := range specs {
		env.Specs = append(env.Specs, EnvironmentEntry{
			Name:    s.Name,
			Version: s.Version,
			Source:  s.Source,
			Path:    path.Join(gemPath, "gems", s.Name+"-"+s.Version),
		})
	}

	data, err := toml.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode environment: %w", err)
	}

	target := EnvironmentPath(opts)
	if err := b.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path.Dir(target), err)
	}
	if err := util.WriteFile(b.fs, target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// EnvironmentPath returns the file WriteEnvironment writes for opts.
func EnvironmentPath(opts EnvironmentOptions) string {
	if opts.SuppressAutoReload {
		return WarEnvironmentFile
	}
	return EnvironmentFile
}

// LoadEnvironment reads an environment file previously written by
// WriteEnvironment.
func LoadEnvironment(fs billy.Basic, name string) (*Environment, error) {
	data, err := fspath.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	var env Environment
	if err := toml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &env, nil
}

// Entry returns the packaged gem named name.
func (e *Environment) Entry(name string) (EnvironmentEntry, bool) {
	for _, s := range e.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return EnvironmentEntry{}, false
}

func (b *Bundler) packagedSpecs(ctx context.Context) ([]Spec, *Lockfile, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("resolve dependencies canceled: %w", ctx.Err())
	default:
	}

	lock, err := b.Lockfile()
	if err != nil {
		return nil, nil, err
	}

	reached := b.runtimeClosure(lock)
	specs := slices.DeleteFunc(slices.Clone(lock.Specs), func(s Spec) bool {
		return !reached[s.Name]
	})
	return specs, lock, nil
}

// runtimeClosure walks from the Gemfile's top-level requirements through
// each spec's dependencies. Excluded gems are neither packaged nor followed,
// so gems needed only by build tools stay out of the archive.
func (b *Bundler) runtimeClosure(lock *Lockfile) map[string]bool {
	reached := make(map[string]bool)
	var queue []string
	for _, d := range lock.Dependencies {
		queue = append(queue, d.Name)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if reached[name] || slices.Contains(b.excluded, name) {
			continue
		}
		reached[name] = true
		if spec, ok := lock.Spec(name); ok {
			for _, d := range spec.Dependencies {
				queue = append(queue, d.Name)
			}
		}
	}
	return reached
}

var _ Resolver = (*Bundler)(nil)
