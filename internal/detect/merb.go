// SPDX-License-Identifier: MPL-2.0

package detect

import (
	"context"
	"fmt"

	"github.com/warbler/warble/pkg/fspath"
	"github.com/warbler/warble/pkg/paramtree"
)

// MerbMarker is the file that identifies a Merb application.
const MerbMarker = "config/init.rb"

// Merb recognizes Merb applications.
type Merb struct {
	Activator Activator
}

// Name implements Probe.
func (*Merb) Name() string { return string(paramtree.BooterMerb) }

// Detect activates the application and adds its declared dependencies.
func (p *Merb) Detect(ctx context.Context, t *Target) Result {
	if p.Activator == nil || !fspath.IsFile(t.FS, MerbMarker) {
		return notApplicable()
	}

	info, err := p.Activator.Activate(ctx, ActivateOptions{SuppressAutoReload: true})
	if err != nil {
		return failed(fmt.Errorf("activate merb: %w", err))
	}
	if info == nil {
		return notApplicable()
	}

	if err := t.WebXML.Set(paramtree.BooterKey, paramtree.BooterMerb); err != nil {
		return failed(err)
	}
	res := Result{Status: Applied, Booter: paramtree.BooterMerb}

	if info.Dependencies == nil {
		res.Warnings = append(res.Warnings, "unable to auto-detect Merb dependencies; upgrade to Merb 1.0 or greater")
		return res
	}
	for _, d := range info.Dependencies {
		t.Gems.Add(d.Name, d.Constraint)
		res.Mutations = append(res.Mutations, "gems += "+d.String())
	}
	return res
}
