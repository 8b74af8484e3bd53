// SPDX-License-Identifier: MPL-2.0

package paramtree

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// IgnoredKey is the reserved key listing entries excluded from ContextParams.
// Setting it on a node replaces that node's ignored set; reading it returns
// the set as a list leaf.
const IgnoredKey = "ignored"

var (
	// ErrStructuralConflict is the sentinel error wrapped by StructuralConflictError.
	ErrStructuralConflict = errors.New("structural conflict")
	// ErrInvalidPath is returned for empty paths or paths with empty segments.
	ErrInvalidPath = errors.New("invalid parameter path")
)

type (
	// Tree is a lazily-extending node of nested parameters. A node holds either
	// a scalar value or ordered children. Reading an unset path materializes
	// empty intermediate nodes.
	//
	// Tree is not safe for concurrent use.
	Tree struct {
		key      string
		value    any
		scalar   bool
		children map[string]*Tree
		order    []string
		ignored  []string
	}

	// StructuralConflictError is returned when a path needs children beneath a
	// key that currently holds a scalar value.
	StructuralConflictError struct {
		Path string
		Key  string
	}
)

// Error implements the error interface.
func (e *StructuralConflictError) Error() string {
	return fmt.Sprintf("cannot descend into %q while resolving %q: key holds a value", e.Key, e.Path)
}

// Unwrap returns ErrStructuralConflict for errors.Is() compatibility.
func (e *StructuralConflictError) Unwrap() error { return ErrStructuralConflict }

// New creates an empty root node named key.
func New(key string) *Tree {
	return &Tree{key: key}
}

// Key returns the node's name within its parent.
func (t *Tree) Key() string { return t.key }

// IsLeaf reports whether the node holds a scalar value.
func (t *Tree) IsLeaf() bool { return t.scalar }

// IsEmpty reports whether the node holds neither a value nor children.
func (t *Tree) IsEmpty() bool { return !t.scalar && len(t.order) == 0 }

// Value returns the raw scalar and whether one is set.
func (t *Tree) Value() (any, bool) { return t.value, t.scalar }

// Keys returns the child keys in insertion order.
func (t *Tree) Keys() []string { return slices.Clone(t.order) }

// Get returns the node at a dotted path, creating empty intermediate nodes as
// needed. It fails only when the path descends through a scalar.
func (t *Tree) Get(path string) (*Tree, error) {
	segs, err := t.split(path)
	if err != nil {
		return nil, err
	}
	if isIgnoredKey(segs) {
		return &Tree{key: IgnoredKey, value: t.Ignored(), scalar: true}, nil
	}
	return t.walk(path, segs)
}

// String returns the scalar at path formatted as a string, or "" when the path
// is unset or holds children.
func (t *Tree) String(path string) string {
	n, err := t.Get(path)
	if err != nil || !n.scalar {
		return ""
	}
	return formatValue(n.value)
}

// Set assigns value to the leaf at path. Intermediate nodes are created.
// Assigning over a node with children discards them.
func (t *Tree) Set(path string, value any) error {
	segs, err := t.split(path)
	if err != nil {
		return err
	}
	if isIgnoredKey(segs) {
		t.SetIgnored(splitList(value)...)
		return nil
	}
	parent, err := t.walk(path, segs[:len(segs)-1])
	if err != nil {
		return err
	}
	if parent.scalar {
		return &StructuralConflictError{Path: path, Key: parent.key}
	}
	leaf := parent.child(segs[len(segs)-1])
	leaf.value = value
	leaf.scalar = true
	leaf.children = nil
	leaf.order = nil
	return nil
}

// Delete removes the node at path. Missing paths are ignored.
func (t *Tree) Delete(path string) {
	segs, err := t.split(path)
	if err != nil {
		return
	}
	if isIgnoredKey(segs) {
		t.ignored = nil
		return
	}
	n := t
	for _, s := range segs[:len(segs)-1] {
		next, ok := n.children[s]
		if !ok || next.scalar {
			return
		}
		n = next
	}
	last := segs[len(segs)-1]
	if _, ok := n.children[last]; !ok {
		return
	}
	delete(n.children, last)
	n.order = slices.DeleteFunc(n.order, func(k string) bool { return k == last })
}

// SetIgnored replaces the set of keys excluded from ContextParams.
func (t *Tree) SetIgnored(keys ...string) {
	t.ignored = slices.Clone(keys)
}

// AddIgnored appends keys to the ignored set.
func (t *Tree) AddIgnored(keys ...string) {
	for _, k := range keys {
		if !slices.Contains(t.ignored, k) {
			t.ignored = append(t.ignored, k)
		}
	}
}

// Ignored returns the keys excluded from ContextParams.
func (t *Tree) Ignored() []string { return slices.Clone(t.ignored) }

// Flatten returns every leaf as a dotted path mapped to its formatted value,
// without escaping or filtering.
func (t *Tree) Flatten() map[string]string {
	out := make(map[string]string)
	t.flatten("", out, func(s string) string { return s })
	return out
}

// ContextParams returns the descriptor parameters: leaves flattened
// depth-first into dotted keys, each key segment and value HTML-escaped once.
// Entries whose final segment is "ignored" or appears in the ignored set are
// dropped.
func (t *Tree) ContextParams() map[string]string {
	out := make(map[string]string)
	t.flatten("", out, EscapeHTML)

	drop := append([]string{IgnoredKey}, t.ignored...)
	for k := range out {
		last := k
		if i := strings.LastIndex(k, "."); i >= 0 {
			last = k[i+1:]
		}
		if slices.Contains(drop, last) {
			delete(out, k)
		}
	}
	return out
}

// Describe renders the node for diagnostics. Empty nodes report that no value
// was found.
func (t *Tree) Describe() string {
	if t.IsEmpty() {
		return fmt.Sprintf("No value for '%s' found", t.key)
	}
	if t.scalar {
		return formatValue(t.value)
	}
	return fmt.Sprintf("%s{%s}", t.key, strings.Join(t.order, ", "))
}

func (t *Tree) flatten(prefix string, out map[string]string, escape func(string) string) {
	for _, k := range t.order {
		c := t.children[k]
		key := escape(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		if c.scalar {
			out[key] = escape(formatValue(c.value))
			continue
		}
		c.flatten(key, out, escape)
	}
}

func isIgnoredKey(segs []string) bool {
	return len(segs) == 1 && segs[0] == IgnoredKey
}

// splitList converts a list value to strings. A single string may hold
// several comma-separated entries.
func splitList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for item := range strings.SplitSeq(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return cast.ToStringSlice(v)
}

func (t *Tree) split(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, ".")
	if slices.Contains(segs, "") {
		return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
	}
	if len(segs) > 1 && t.key != "" && segs[0] == t.key {
		segs = segs[1:]
	}
	return segs, nil
}

func (t *Tree) walk(path string, segs []string) (*Tree, error) {
	n := t
	for _, s := range segs {
		if n.scalar {
			return nil, &StructuralConflictError{Path: path, Key: n.key}
		}
		n = n.child(s)
	}
	return n, nil
}

func (t *Tree) child(key string) *Tree {
	if c, ok := t.children[key]; ok {
		return c
	}
	if t.children == nil {
		t.children = make(map[string]*Tree)
	}
	c := &Tree{key: key}
	t.children[key] = c
	t.order = append(t.order, key)
	return c
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(val, ",")
	case fmt.Stringer:
		return val.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if list, err := cast.ToStringSliceE(v); err == nil {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(v)
}
