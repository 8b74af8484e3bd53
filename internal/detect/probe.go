// SPDX-License-Identifier: MPL-2.0

package detect

import (
	"context"
	"slices"

	billy "github.com/go-git/go-billy/v5"

	"github.com/warbler/warble/pkg/depset"
	"github.com/warbler/warble/pkg/paramtree"
)

const (
	// NotApplicable means the probe's marker was absent or activation found nothing.
	NotApplicable Status = iota
	// Applied means the probe recognized the framework and updated the target.
	Applied
	// Error means activation failed. The cascade treats it as NotApplicable.
	Error
)

type (
	// Status is the outcome class of a single probe.
	Status int

	// Result is what a probe reports back to the cascade.
	Result struct {
		Status Status
		// Booter is set when Status is Applied.
		Booter paramtree.Booter
		// Mutations describe the changes made to the target, for logging.
		Mutations []string
		// Warnings are logged by the cascade without affecting the outcome.
		Warnings []string
		// Err is set when Status is Error.
		Err error
	}

	// Target is the part of the build configuration a probe may change.
	Target struct {
		FS     billy.Filesystem
		WebXML *paramtree.Tree
		Gems   *depset.Set
		Dirs   *[]string
	}

	// Probe recognizes one framework.
	Probe interface {
		Name() string
		Detect(ctx context.Context, t *Target) Result
	}
)

// String returns the status name used in log output.
func (s Status) String() string {
	switch s {
	case NotApplicable:
		return "not-applicable"
	case Applied:
		return "applied"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

func notApplicable() Result { return Result{Status: NotApplicable} }

func failed(err error) Result { return Result{Status: Error, Err: err} }

// AddDir appends dir to the target's directory list unless already present.
func (t *Target) AddDir(dir string) bool {
	if t.Dirs == nil || slices.Contains(*t.Dirs, dir) {
		return false
	}
	*t.Dirs = append(*t.Dirs, dir)
	return true
}

// DefaultProbes returns the rails, merb and rack probes in cascade order.
// Rails and merb activate from the project's Gemfile.lock when there is one.
func DefaultProbes(fs billy.Filesystem) []Probe {
	return []Probe{
		&Rails{Activator: newLockfileActivator(fs, FrameworkRails)},
		&Merb{Activator: newLockfileActivator(fs, FrameworkMerb)},
		Rack{},
	}
}
