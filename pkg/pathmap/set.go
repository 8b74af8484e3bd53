// SPDX-License-Identifier: MPL-2.0

package pathmap

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// CategoryPublicHTML maps public assets into the archive root.
	CategoryPublicHTML Category = "public_html"
	// CategoryJavaLibs maps Java libraries into WEB-INF/lib.
	CategoryJavaLibs Category = "java_libs"
	// CategoryJavaClasses maps compiled classes into WEB-INF/classes.
	CategoryJavaClasses Category = "java_classes"
	// CategoryApplication maps application code into WEB-INF.
	CategoryApplication Category = "application"
	// CategoryWebinf maps descriptor files next to web.xml.
	CategoryWebinf Category = "webinf"
	// CategoryGemspecs maps package specifications under the package-install path.
	CategoryGemspecs Category = "gemspecs"
	// CategoryGems maps package payloads under the package-install path.
	CategoryGems Category = "gems"
)

var (
	// ErrInvalidCategory is returned when a Category value is not recognized.
	ErrInvalidCategory = errors.New("invalid pathmap category")

	categories = []Category{
		CategoryPublicHTML,
		CategoryJavaLibs,
		CategoryJavaClasses,
		CategoryApplication,
		CategoryWebinf,
		CategoryGemspecs,
		CategoryGems,
	}

	// relocatable lists the categories whose templates reference the
	// package-install path.
	relocatable = []Category{CategoryGemspecs, CategoryGems}
)

type (
	// Category names one of the fixed pathmap categories.
	Category string

	// InvalidCategoryError is returned when a Category value is not recognized.
	// It wraps ErrInvalidCategory for errors.Is() compatibility.
	InvalidCategoryError struct {
		Value Category
	}

	// Set holds the ordered template list of every category.
	// Relocate mutates the lists in place, so holders of a *Set observe it.
	Set struct {
		templates map[Category][]Template
	}
)

// Categories returns every known category in declaration order.
func Categories() []Category { return slices.Clone(categories) }

// String returns the string representation of the Category.
func (c Category) String() string { return string(c) }

// Validate returns an error if the Category is not one of the known categories.
func (c Category) Validate() error {
	if slices.Contains(categories, c) {
		return nil
	}
	return &InvalidCategoryError{Value: c}
}

// Error implements the error interface.
func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid pathmap category %q (valid: %s)", e.Value, strings.Join(categoryNames(), ", "))
}

// Unwrap returns ErrInvalidCategory for errors.Is() compatibility.
func (e *InvalidCategoryError) Unwrap() error { return ErrInvalidCategory }

func categoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}

// DefaultSet returns the built-in templates. relGemPath is the package-install
// path relative to the archive root (e.g. "WEB-INF/gems").
func DefaultSet(relGemPath string) *Set {
	return &Set{templates: map[Category][]Template{
		CategoryPublicHTML:  {MustParse("%{public/,}p")},
		CategoryJavaLibs:    {MustParse("WEB-INF/lib/%f")},
		CategoryJavaClasses: {MustParse("WEB-INF/classes/%p")},
		CategoryApplication: {MustParse("WEB-INF/%p")},
		CategoryWebinf:      {MustParse("WEB-INF/%{.erb$,}f")},
		CategoryGemspecs:    {MustParse(relGemPath + "/specifications/%f")},
		CategoryGems:        {MustParse(relGemPath + "/gems/%p")},
	}}
}

// Templates returns a copy of the templates registered for a category.
func (s *Set) Templates(c Category) []Template {
	return slices.Clone(s.templates[c])
}

// Add appends a template to a category.
func (s *Set) Add(c Category, pattern string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	t, err := Parse(pattern)
	if err != nil {
		return err
	}
	if s.templates == nil {
		s.templates = make(map[Category][]Template)
	}
	s.templates[c] = append(s.templates[c], t)
	return nil
}

// Apply rewrites src with the first template of the category.
func (s *Set) Apply(c Category, src string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	ts := s.templates[c]
	if len(ts) == 0 {
		return "", fmt.Errorf("pathmap category %q has no templates", c)
	}
	return ts[0].Apply(src), nil
}

// ApplyAll rewrites src with every template of the category, in order.
// Categories accepting several naming conventions keep all results.
func (s *Set) ApplyAll(c Category, src string) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.templates[c]))
	for _, t := range s.templates[c] {
		out = append(out, t.Apply(src))
	}
	return out, nil
}

// Relocate replaces the first occurrence of oldPrefix with newPrefix in every
// template of the relocatable categories (gemspecs and gems). Archive-relative
// templates match the prefixes without their leading "/". All rewritten
// templates are parsed before any list is updated; on error the set is left
// unchanged.
func (s *Set) Relocate(oldPrefix, newPrefix string) error {
	if oldPrefix == newPrefix {
		return nil
	}
	if oldPrefix == "" {
		return fmt.Errorf("relocate pathmaps: empty prefix")
	}

	staged := make(map[Category][]Template, len(relocatable))
	for _, c := range relocatable {
		rewritten := make([]Template, len(s.templates[c]))
		for i, t := range s.templates[c] {
			nt, err := Parse(relocatePattern(t.pattern, oldPrefix, newPrefix))
			if err != nil {
				return fmt.Errorf("relocate pathmaps: %w", err)
			}
			rewritten[i] = nt
		}
		staged[c] = rewritten
	}

	for c, ts := range staged {
		copy(s.templates[c], ts)
	}
	return nil
}

func relocatePattern(pattern, oldPrefix, newPrefix string) string {
	if strings.Contains(pattern, oldPrefix) {
		return strings.Replace(pattern, oldPrefix, newPrefix, 1)
	}
	relOld := strings.TrimPrefix(oldPrefix, "/")
	if relOld == oldPrefix || relOld == "" {
		return pattern
	}
	return strings.Replace(pattern, relOld, strings.TrimPrefix(newPrefix, "/"), 1)
}
