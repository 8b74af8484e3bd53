// SPDX-License-Identifier: MPL-2.0

package detect

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/warbler/warble/pkg/paramtree"
)

type (
	// Cascade runs probes in order until one applies.
	Cascade struct {
		probes []Probe
		logger *log.Logger
	}

	// Outcome is the final state of a cascade run.
	Outcome struct {
		Detected bool
		Booter   paramtree.Booter
		// Probe names the probe that applied.
		Probe string
	}
)

// NewCascade creates a cascade over probes. A nil logger discards output.
func NewCascade(logger *log.Logger, probes ...Probe) *Cascade {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cascade{probes: probes, logger: logger}
}

// Probes returns the probes in run order.
func (c *Cascade) Probes() []Probe {
	out := make([]Probe, len(c.probes))
	copy(out, c.probes)
	return out
}

// Run invokes each probe until one reports Applied. Probes after the winner
// are never invoked. Errors are logged at warn level and treated as misses.
func (c *Cascade) Run(ctx context.Context, t *Target) Outcome {
	for _, p := range c.probes {
		if err := ctx.Err(); err != nil {
			c.logger.Debug("detection stopped", "err", err)
			break
		}

		res := p.Detect(ctx, t)
		for _, w := range res.Warnings {
			c.logger.Warn(w, "probe", p.Name())
		}

		switch res.Status {
		case Applied:
			c.logger.Debug("framework detected", "probe", p.Name(), "booter", res.Booter, "changes", res.Mutations)
			return Outcome{Detected: true, Booter: res.Booter, Probe: p.Name()}
		case Error:
			c.logger.Warn("framework detection failed", "probe", p.Name(), "err", res.Err)
		default:
			c.logger.Debug("framework not detected", "probe", p.Name())
		}
	}
	return Outcome{}
}
