// SPDX-License-Identifier: MPL-2.0

package detect

import (
	"context"
	"fmt"

	"github.com/warbler/warble/pkg/fspath"
	"github.com/warbler/warble/pkg/paramtree"
)

const (
	// RackupFile is the rackup script that identifies a plain Rack application.
	RackupFile = "config.ru"
	// RackupKey is the descriptor parameter holding the rackup script.
	RackupKey = "rackup"
)

// Rack recognizes plain Rack applications. It needs no activation.
type Rack struct{}

// Name implements Probe.
func (Rack) Name() string { return string(paramtree.BooterRack) }

// Detect copies the rackup script into the descriptor parameters.
func (Rack) Detect(_ context.Context, t *Target) Result {
	if !fspath.IsFile(t.FS, RackupFile) {
		return notApplicable()
	}

	script, err := fspath.ReadFile(t.FS, RackupFile)
	if err != nil {
		return failed(fmt.Errorf("read %s: %w", RackupFile, err))
	}

	if err := t.WebXML.Set(paramtree.BooterKey, paramtree.BooterRack); err != nil {
		return failed(err)
	}
	if err := t.WebXML.Set(RackupKey, string(script)); err != nil {
		return failed(err)
	}
	return Result{Status: Applied, Booter: paramtree.BooterRack, Mutations: []string{RackupKey + " = " + RackupFile}}
}
