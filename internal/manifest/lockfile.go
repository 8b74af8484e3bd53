// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/warbler/warble/pkg/depset"
)

const (
	// SourceRubygems marks specs resolved from a gem server (GEM section).
	SourceRubygems SourceKind = "rubygems"
	// SourcePath marks specs resolved from a local directory (PATH section).
	SourcePath SourceKind = "path"
	// SourceGit marks specs resolved from a git checkout (GIT section).
	SourceGit SourceKind = "git"
)

// ErrMalformedLockfile is the sentinel error wrapped by LockfileSyntaxError.
var ErrMalformedLockfile = errors.New("malformed lockfile")

type (
	// SourceKind identifies the section a spec was resolved from.
	SourceKind string

	// Spec is one resolved gem.
	Spec struct {
		Name         string
		Version      string
		Source       SourceKind
		Remote       string
		Dependencies []depset.Dependency
	}

	// Lockfile is the parsed content of Gemfile.lock.
	Lockfile struct {
		// Specs lists resolved gems in file order across all sources.
		Specs []Spec
		// Dependencies lists the Gemfile's top-level requirements.
		Dependencies []depset.Dependency
		Platforms    []string
		BundledWith  string
	}

	// LockfileSyntaxError reports a line that does not fit the lockfile layout.
	LockfileSyntaxError struct {
		Line   int
		Text   string
		Reason string
	}
)

// Error implements the error interface.
func (e *LockfileSyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Unwrap returns ErrMalformedLockfile for errors.Is() compatibility.
func (e *LockfileSyntaxError) Unwrap() error { return ErrMalformedLockfile }

// Spec returns the resolved spec named name.
func (l *Lockfile) Spec(name string) (Spec, bool) {
	for _, s := range l.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// ParseLockfile parses Gemfile.lock content. Unknown sections such as
// CHECKSUMS or RUBY VERSION are skipped.
func ParseLockfile(r io.Reader) (*Lockfile, error) {
	lock := &Lockfile{}

	var (
		section string
		source  SourceKind
		remote  string
		inSpecs bool
		current *Spec
		lineNo  int
	)

	flush := func() {
		if current != nil {
			lock.Specs = append(lock.Specs, *current)
			current = nil
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		raw := strings.TrimRight(sc.Text(), " \t\r")
		if raw == "" {
			continue
		}

		indent := len(raw) - len(strings.TrimLeft(raw, " "))
		text := strings.TrimSpace(raw)

		if indent == 0 {
			flush()
			section = text
			inSpecs = false
			remote = ""
			switch section {
			case "GEM":
				source = SourceRubygems
			case "PATH":
				source = SourcePath
			case "GIT":
				source = SourceGit
			default:
				source = ""
			}
			continue
		}

		if section == "" {
			return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: "entry outside of a section"}
		}

		switch {
		case source != "":
			switch {
			case indent == 2 && text == "specs:":
				inSpecs = true
			case indent == 2 && strings.HasPrefix(text, "remote:"):
				remote = strings.TrimSpace(strings.TrimPrefix(text, "remote:"))
			case indent == 2:
				// revision:, branch:, glob: and similar source options
			case indent == 4:
				if !inSpecs {
					return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: "spec before specs:"}
				}
				flush()
				name, version, err := splitEntry(text)
				if err != nil {
					return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: err.Error()}
				}
				current = &Spec{Name: name, Version: version, Source: source, Remote: remote}
			case indent == 6:
				if current == nil {
					return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: "dependency without a spec"}
				}
				name, constraint, err := splitEntry(text)
				if err != nil {
					return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: err.Error()}
				}
				current.Dependencies = append(current.Dependencies, depset.Dependency{Name: name, Constraint: constraint})
			default:
				return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: "unexpected indentation"}
			}
		case section == "DEPENDENCIES":
			name, constraint, err := splitEntry(text)
			if err != nil {
				return nil, &LockfileSyntaxError{Line: lineNo, Text: raw, Reason: err.Error()}
			}
			lock.Dependencies = append(lock.Dependencies, depset.Dependency{
				Name:       strings.TrimSuffix(name, "!"),
				Constraint: constraint,
			})
		case section == "PLATFORMS":
			lock.Platforms = append(lock.Platforms, text)
		case section == "BUNDLED WITH":
			lock.BundledWith = text
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}
	flush()

	return lock, nil
}

// splitEntry splits "name (detail)" into its parts. The detail is optional.
func splitEntry(text string) (name, detail string, err error) {
	name, rest, found := strings.Cut(text, " (")
	if !found {
		if strings.ContainsAny(text, "() ") {
			return "", "", errors.New("unbalanced entry")
		}
		return text, "", nil
	}
	if !strings.HasSuffix(rest, ")") {
		return "", "", errors.New("unterminated version")
	}
	return name, strings.TrimSuffix(rest, ")"), nil
}
