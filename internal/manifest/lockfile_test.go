// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/warbler/warble/pkg/depset"
)

const railsLock = `GIT
  remote: https://github.com/jruby/jruby-rack.git
  revision: 0123abc
  specs:
    jruby-rack (1.0.1)

GEM
  remote: https://rubygems.org/
  specs:
    actionpack (2.3.5)
      activesupport (= 2.3.5)
      rack (~> 1.0.0)
    activesupport (2.3.5)
    rack (1.0.1)
    rails (2.3.5)
      actionpack (= 2.3.5)
    rake (0.8.7)

PLATFORMS
  java

DEPENDENCIES
  jruby-rack!
  rails (= 2.3.5)
  rake

BUNDLED WITH
   2.4.10
`

func TestParseLockfile(t *testing.T) {
	t.Parallel()

	lock, err := ParseLockfile(strings.NewReader(railsLock))
	if err != nil {
		t.Fatalf("ParseLockfile() error = %v", err)
	}

	var names []string
	for _, s := range lock.Specs {
		names = append(names, s.Name+"@"+s.Version)
	}
	wantNames := []string{
		"jruby-rack@1.0.1",
		"actionpack@2.3.5",
		"activesupport@2.3.5",
		"rack@1.0.1",
		"rails@2.3.5",
		"rake@0.8.7",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("specs mismatch (-want +got):\n%s", diff)
	}

	actionpack, ok := lock.Spec("actionpack")
	if !ok {
		t.Fatal("Spec(actionpack) not found")
	}
	wantDeps := []depset.Dependency{
		{Name: "activesupport", Constraint: "= 2.3.5"},
		{Name: "rack", Constraint: "~> 1.0.0"},
	}
	if diff := cmp.Diff(wantDeps, actionpack.Dependencies); diff != "" {
		t.Errorf("actionpack dependencies mismatch (-want +got):\n%s", diff)
	}
	if actionpack.Source != SourceRubygems || actionpack.Remote != "https://rubygems.org/" {
		t.Errorf("actionpack source = %q %q", actionpack.Source, actionpack.Remote)
	}

	jr, _ := lock.Spec("jruby-rack")
	if jr.Source != SourceGit {
		t.Errorf("jruby-rack source = %q, want %q", jr.Source, SourceGit)
	}

	wantTop := []depset.Dependency{
		{Name: "jruby-rack"},
		{Name: "rails", Constraint: "= 2.3.5"},
		{Name: "rake"},
	}
	if diff := cmp.Diff(wantTop, lock.Dependencies); diff != "" {
		t.Errorf("top-level dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"java"}, lock.Platforms); diff != "" {
		t.Errorf("platforms mismatch (-want +got):\n%s", diff)
	}
	if lock.BundledWith != "2.4.10" {
		t.Errorf("BundledWith = %q, want %q", lock.BundledWith, "2.4.10")
	}
}

func TestParseLockfile_SkipsUnknownSections(t *testing.T) {
	t.Parallel()

	in := "GEM\n  remote: https://rubygems.org/\n  specs:\n    rack (2.2.8)\n\nCHECKSUMS\n  rack (2.2.8) sha256=abc\n\nRUBY VERSION\n   ruby 3.1.0p0\n"
	lock, err := ParseLockfile(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseLockfile() error = %v", err)
	}
	if len(lock.Specs) != 1 || lock.Specs[0].Name != "rack" {
		t.Errorf("Specs = %+v, want just rack", lock.Specs)
	}
}

func TestParseLockfile_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		line int
	}{
		{"entry before section", "  rack (1.0)\n", 1},
		{"spec before specs", "GEM\n  remote: x\n    rack (1.0)\n", 3},
		{"dependency without spec", "GEM\n  specs:\n      rack (1.0)\n", 3},
		{"unterminated version", "GEM\n  specs:\n    rack (1.0\n", 3},
		{"odd indentation", "GEM\n  specs:\n     rack (1.0)\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseLockfile(strings.NewReader(tt.in))
			if !errors.Is(err, ErrMalformedLockfile) {
				t.Fatalf("ParseLockfile() error = %v, want ErrMalformedLockfile", err)
			}
			var syntaxErr *LockfileSyntaxError
			if !errors.As(err, &syntaxErr) || syntaxErr.Line != tt.line {
				t.Errorf("error = %v, want line %d", err, tt.line)
			}
		})
	}
}
