// SPDX-License-Identifier: MPL-2.0

// Package depset holds the ordered, name-deduplicated list of packages bundled
// into a web archive.
package depset

import (
	"fmt"
	"iter"
	"slices"
)

type (
	// Dependency is a package reference. Constraint is free-form
	// ("1.0.2", ">= 2.3", or empty for "any version").
	Dependency struct {
		Name       string `json:"name" toml:"name"`
		Constraint string `json:"constraint,omitempty" toml:"constraint,omitempty"`
	}

	// Set is an ordered list of dependencies keyed by name. Adding a name that
	// already exists overwrites its constraint in place, keeping the position
	// of the first insertion. Set performs no validation of names or
	// constraints. It is not safe for concurrent use.
	Set struct {
		entries []Dependency
		index   map[string]int
	}
)

// String formats the dependency as "name (constraint)".
func (d Dependency) String() string {
	if d.Constraint == "" {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Constraint)
}

// New creates a Set holding deps in order.
func New(deps ...Dependency) *Set {
	s := &Set{}
	for _, d := range deps {
		s.Add(d.Name, d.Constraint)
	}
	return s
}

// Add appends a dependency or overwrites the constraint of an existing one.
func (s *Set) Add(name, constraint string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.entries[i].Constraint = constraint
		return
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, Dependency{Name: name, Constraint: constraint})
}

// Get returns the dependency with the given name.
func (s *Set) Get(name string) (Dependency, bool) {
	i, ok := s.index[name]
	if !ok {
		return Dependency{}, false
	}
	return s.entries[i], true
}

// Has reports whether a dependency with the given name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Remove drops the named dependency. Missing names are ignored.
func (s *Set) Remove(name string) {
	i, ok := s.index[name]
	if !ok {
		return
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	s.reindex()
}

// Clear empties the set.
func (s *Set) Clear() {
	s.entries = nil
	s.index = nil
}

// Replace discards the current contents and adds deps in order.
func (s *Set) Replace(deps []Dependency) {
	s.Clear()
	for _, d := range deps {
		s.Add(d.Name, d.Constraint)
	}
}

// Len returns the number of dependencies.
func (s *Set) Len() int { return len(s.entries) }

// All iterates over the dependencies in insertion order.
func (s *Set) All() iter.Seq[Dependency] {
	return func(yield func(Dependency) bool) {
		for _, d := range s.entries {
			if !yield(d) {
				return
			}
		}
	}
}

// List returns a copy of the dependencies in insertion order.
func (s *Set) List() []Dependency {
	return slices.Clone(s.entries)
}

func (s *Set) reindex() {
	s.index = make(map[string]int, len(s.entries))
	for i, d := range s.entries {
		s.index[d.Name] = i
	}
}
