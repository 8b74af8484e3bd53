// SPDX-License-Identifier: MPL-2.0

package detect

import (
	"context"
	"fmt"

	"github.com/warbler/warble/pkg/fspath"
	"github.com/warbler/warble/pkg/paramtree"
)

const (
	// RailsMarker is the file that identifies a Rails application.
	RailsMarker = "config/environment.rb"

	maxRuntimesKey = "jruby.max.runtimes"
)

// Rails recognizes Rails applications.
type Rails struct {
	Activator Activator
}

// Name implements Probe.
func (*Rails) Name() string { return string(paramtree.BooterRails) }

// Detect activates the application and records the Rails gem, the declared
// gems that are not vendored, the tmp directory, and a single runtime for
// threadsafe applications.
func (p *Rails) Detect(ctx context.Context, t *Target) Result {
	if p.Activator == nil || !fspath.IsFile(t.FS, RailsMarker) {
		return notApplicable()
	}

	info, err := p.Activator.Activate(ctx, ActivateOptions{SuppressAutoReload: true})
	if err != nil {
		return failed(fmt.Errorf("activate rails: %w", err))
	}
	if info == nil {
		return notApplicable()
	}

	if err := t.WebXML.Set(paramtree.BooterKey, paramtree.BooterRails); err != nil {
		return failed(err)
	}
	res := Result{Status: Applied, Booter: paramtree.BooterRails}

	if fspath.IsDir(t.FS, "tmp") && t.AddDir("tmp") {
		res.Mutations = append(res.Mutations, "dirs += tmp")
	}

	if !info.Vendored && !fspath.IsDir(t.FS, "vendor/rails") && info.Version != "" {
		t.Gems.Add("rails", info.Version)
		res.Mutations = append(res.Mutations, "gems += rails "+info.Version)
	}

	for _, d := range info.Dependencies {
		if fspath.HasEntryWithPrefix(t.FS, "vendor/gems", d.Name) {
			continue
		}
		t.Gems.Add(d.Name, d.Constraint)
		res.Mutations = append(res.Mutations, "gems += "+d.String())
	}

	if info.Threadsafe {
		if err := t.WebXML.Set(maxRuntimesKey, 1); err != nil {
			return failed(err)
		}
		res.Mutations = append(res.Mutations, maxRuntimesKey+" = 1")
	}
	return res
}
