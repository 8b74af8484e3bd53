// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/warbler/warble/internal/issue"
)

const (
	// DefaultGemPath is the in-archive gem directory unless configured otherwise.
	DefaultGemPath = "/WEB-INF/gems"

	gemPathKey = "gem.path"
	// pathmap metacharacters that would change a template's meaning
	templateMeta = "%{},;"
)

// ErrInvalidGemPath is the sentinel error wrapped by InvalidGemPathError.
var ErrInvalidGemPath = errors.New("invalid gem path")

// InvalidGemPathError is returned when a gem path cannot be used as an
// in-archive directory.
type InvalidGemPathError struct {
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidGemPathError) Error() string {
	return fmt.Sprintf("invalid gem path %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidGemPath for errors.Is() compatibility.
func (e *InvalidGemPathError) Unwrap() error { return ErrInvalidGemPath }

// NormalizeGemPath prefixes p with "/" when it lacks one.
func NormalizeGemPath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// ValidateGemPath checks a normalized gem path.
func ValidateGemPath(p string) error {
	switch {
	case strings.TrimSpace(p) == "" || strings.TrimSpace(p) == "/":
		return &InvalidGemPathError{Value: p, Reason: "must name a directory inside the archive"}
	case p != strings.TrimSpace(p):
		return &InvalidGemPathError{Value: p, Reason: "must not have surrounding whitespace"}
	case strings.ContainsAny(p, templateMeta):
		return &InvalidGemPathError{Value: p, Reason: "must not contain any of " + templateMeta}
	case slices.Contains(strings.Split(p, "/"), ".."):
		return &InvalidGemPathError{Value: p, Reason: "must not leave the archive"}
	}
	return nil
}

// RelativeGemPath returns the gem path without its leading "/".
func (c *Config) RelativeGemPath() string {
	return strings.TrimPrefix(c.GemPath, "/")
}

// relocateGemPath moves the gem categories and the gem.path descriptor
// parameter to a customized gem path. Nothing changes when validation fails.
func (c *Config) relocateGemPath() error {
	if c.GemPath == c.defaultGemPath {
		return nil
	}

	gp := NormalizeGemPath(c.GemPath)
	if err := ValidateGemPath(gp); err != nil {
		return gemPathError(c.GemPath, err)
	}
	if _, err := c.WebXML.Get(gemPathKey); err != nil {
		return gemPathError(c.GemPath, err)
	}

	if err := c.Pathmaps.Relocate(strings.TrimPrefix(c.defaultGemPath, "/"), strings.TrimPrefix(gp, "/")); err != nil {
		return gemPathError(c.GemPath, err)
	}
	if err := c.WebXML.Set(gemPathKey, gp); err != nil {
		return gemPathError(c.GemPath, err)
	}

	c.GemPath = gp
	c.logger.Debug("gem path relocated", "from", c.defaultGemPath, "to", gp)
	return nil
}

func gemPathError(p string, err error) error {
	return issue.NewErrorContext().
		WithOperation("relocate gem path").
		WithResource(p).
		WithSuggestion("Use an in-archive directory such as /WEB-INF/vendor/gems").
		WithSuggestion("Remove gem_path from config/warble.cue to keep " + DefaultGemPath).
		WithIssue(issue.InvalidGemPathId).
		Wrap(err).
		BuildError()
}
