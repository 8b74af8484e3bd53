// SPDX-License-Identifier: MPL-2.0

package detect

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	billy "github.com/go-git/go-billy/v5"

	"github.com/warbler/warble/internal/manifest"
	"github.com/warbler/warble/pkg/depset"
	"github.com/warbler/warble/pkg/fspath"
)

const (
	// FrameworkRails selects the Rails gem for LockfileActivator.
	FrameworkRails Framework = "rails"
	// FrameworkMerb selects the Merb core gem for LockfileActivator.
	FrameworkMerb Framework = "merb-core"
)

var (
	// ErrInvalidFramework is returned when a Framework value is not recognized.
	ErrInvalidFramework = errors.New("invalid framework")

	threadsafePattern = regexp.MustCompile(`(?m)^\s*config\.threadsafe!`)
	versionPartRegex  = regexp.MustCompile(`(?m)^\s*(MAJOR|MINOR|TINY)\s*=\s*(\d+)`)

	threadsafeFiles = []string{
		"config/environment.rb",
		"config/application.rb",
		"config/environments/production.rb",
	}
)

const (
	vendoredRailsDir     = "vendor/rails"
	vendoredRailsVersion = "vendor/rails/railties/lib/rails/version.rb"
)

type (
	// ActivateOptions tune a single activation.
	ActivateOptions struct {
		// SuppressAutoReload keeps the activator from loading a previously
		// written bundle environment while the project is inspected.
		SuppressAutoReload bool
	}

	// FrameworkInfo is what activation learned about the framework.
	FrameworkInfo struct {
		Version string
		// Vendored means the framework ships inside the project.
		Vendored bool
		// Dependencies are the gems the application declares. A nil list means
		// the framework could not report them.
		Dependencies []depset.Dependency
		// Threadsafe means one runtime can serve concurrent requests.
		Threadsafe bool
	}

	// Activator loads a framework environment. A nil info with a nil error
	// means the framework is not in use.
	Activator interface {
		Activate(ctx context.Context, opts ActivateOptions) (*FrameworkInfo, error)
	}

	// ActivatorFunc adapts a function to the Activator interface.
	ActivatorFunc func(ctx context.Context, opts ActivateOptions) (*FrameworkInfo, error)

	// Framework names the gem a LockfileActivator looks for.
	Framework string

	// InvalidFrameworkError is returned when a Framework value is not recognized.
	// It wraps ErrInvalidFramework for errors.Is() compatibility.
	InvalidFrameworkError struct {
		Value Framework
	}

	// LockfileActivator activates a framework from the project's resolved
	// Gemfile.lock without running any application code.
	LockfileActivator struct {
		fs        billy.Filesystem
		framework Framework
		lockfile  string
	}
)

// Activate calls f.
func (f ActivatorFunc) Activate(ctx context.Context, opts ActivateOptions) (*FrameworkInfo, error) {
	return f(ctx, opts)
}

// String returns the string representation of the Framework.
func (f Framework) String() string { return string(f) }

// Validate returns an error if the Framework is not one of the defined values.
func (f Framework) Validate() error {
	switch f {
	case FrameworkRails, FrameworkMerb:
		return nil
	default:
		return &InvalidFrameworkError{Value: f}
	}
}

// Error implements the error interface.
func (e *InvalidFrameworkError) Error() string {
	return fmt.Sprintf("invalid framework %q (valid: rails, merb-core)", e.Value)
}

// Unwrap returns ErrInvalidFramework for errors.Is() compatibility.
func (e *InvalidFrameworkError) Unwrap() error { return ErrInvalidFramework }

// NewLockfileActivator creates an activator for framework over the project fs.
func NewLockfileActivator(fs billy.Filesystem, framework Framework) (*LockfileActivator, error) {
	if err := framework.Validate(); err != nil {
		return nil, err
	}
	return newLockfileActivator(fs, framework), nil
}

func newLockfileActivator(fs billy.Filesystem, framework Framework) *LockfileActivator {
	return &LockfileActivator{fs: fs, framework: framework, lockfile: manifest.LockfileName}
}

// Activate reads the framework version and the application's declared gems.
// Unless auto-reload is suppressed, a written bundle environment takes
// precedence for the version. Without a Gemfile.lock the application does not
// use Bundler: the result carries no dependency list, and for Rails the
// version comes from a vendored copy when there is one.
func (a *LockfileActivator) Activate(ctx context.Context, opts ActivateOptions) (*FrameworkInfo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("activate %s canceled: %w", a.framework, ctx.Err())
	default:
	}

	lock, err := manifest.NewBundler(a.fs, manifest.WithLockfile(a.lockfile), manifest.WithExcludedGems()).Lockfile()
	switch {
	case errors.Is(err, manifest.ErrLockfileNotFound):
		return a.withoutLockfile(), nil
	case err != nil:
		return nil, err
	}

	spec, ok := lock.Spec(string(a.framework))
	if !ok {
		return nil, nil
	}

	info := &FrameworkInfo{Version: spec.Version}
	if !opts.SuppressAutoReload {
		if env, err := manifest.LoadEnvironment(a.fs, manifest.EnvironmentFile); err == nil {
			if entry, ok := env.Entry(string(a.framework)); ok {
				info.Version = entry.Version
			}
		}
	}

	info.Dependencies = []depset.Dependency{}
	for _, d := range lock.Dependencies {
		if d.Name != string(a.framework) {
			info.Dependencies = append(info.Dependencies, d)
		}
	}

	if a.framework == FrameworkRails {
		info.Vendored = fspath.IsDir(a.fs, vendoredRailsDir)
		info.Threadsafe = a.threadsafe()
	}
	return info, nil
}

func (a *LockfileActivator) withoutLockfile() *FrameworkInfo {
	info := &FrameworkInfo{}
	if a.framework == FrameworkRails {
		info.Vendored = fspath.IsDir(a.fs, vendoredRailsDir)
		info.Version = a.vendoredRailsVersion()
		info.Threadsafe = a.threadsafe()
	}
	return info
}

// vendoredRailsVersion reads MAJOR.MINOR.TINY from the vendored railties, or
// returns "" when any part is missing.
func (a *LockfileActivator) vendoredRailsVersion() string {
	data, err := fspath.ReadFile(a.fs, vendoredRailsVersion)
	if err != nil {
		return ""
	}
	parts := map[string]string{}
	for _, m := range versionPartRegex.FindAllSubmatch(data, -1) {
		if _, seen := parts[string(m[1])]; !seen {
			parts[string(m[1])] = string(m[2])
		}
	}
	if len(parts) != 3 {
		return ""
	}
	return parts["MAJOR"] + "." + parts["MINOR"] + "." + parts["TINY"]
}

func (a *LockfileActivator) threadsafe() bool {
	for _, name := range threadsafeFiles {
		data, err := fspath.ReadFile(a.fs, name)
		if err != nil {
			continue
		}
		if threadsafePattern.Match(data) {
			return true
		}
	}
	return false
}
