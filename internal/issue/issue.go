// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ConfigLoadFailedId Id = iota + 1
	WarblefileParseErrorId
	InvalidGemPathId
	InvalidPathmapId
	ManifestResolveFailedId
	LockfileMissingId
	DetectionFailedId
	UnknownCategoryId
)

type (
	// Id identifies a catalog issue.
	Id int

	// MarkdownMsg is the Markdown body of an issue page.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is a page of guidance for a class of failures.
	Issue struct {
		id       Id
		name     string
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// Name returns the issue's short slug.
func (i *Issue) Name() string { return i.name }

// MarkdownMsg returns the Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Markdown returns the body followed by a "See also" section when links exist.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			fmt.Fprintf(&sb, "- <%s>\n", link)
		}
	}
	return sb.String()
}

// Render renders the page for a terminal using a glamour style
// ("dark", "light", "notty", "auto" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load warble configuration

The user configuration file could not be read or did not match the schema.

## Things you can try
- Check the CUE syntax of ~/.config/warble/config.cue
- Compare your file with the defaults:
~~~
$ warble config --format toml
~~~
- Remove the file to fall back to built-in defaults`,
	}

	warblefileParseErrorIssue = &Issue{
		id:   WarblefileParseErrorId,
		name: "warblefile-parse-error",
		mdMsg: `
# config/warble.cue is invalid

The project override file failed validation against the #Warble schema.

## Things you can try
- Read the field path in the error message; it points at the offending value
- Keep gems as a struct of name to constraint:
~~~cue
gems: {
	"activerecord-jdbc-adapter": ">= 0.9"
	"jruby-openssl": ""
}
~~~
- Nest descriptor parameters under webxml:
~~~cue
webxml: jruby: max: runtimes: 4
~~~`,
		docLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	invalidGemPathIssue = &Issue{
		id:   InvalidGemPathId,
		name: "invalid-gem-path",
		mdMsg: `
# Invalid gem path

gem_path must be a directory inside the archive. It may not be the archive
root, climb out with "..", or contain pathmap characters (% { } , ;).

## Things you can try
- Use an absolute in-archive path:
~~~cue
gem_path: "/WEB-INF/vendor/gems"
~~~`,
	}

	invalidPathmapIssue = &Issue{
		id:   InvalidPathmapId,
		name: "invalid-pathmap",
		mdMsg: `
# Invalid pathmap template

A pathmap template uses an unknown specifier or a bad substitution.

## Supported specifiers
- %p path, %f file name, %n name without extension, %x extension
- %X path without extension, %d directory, %2d / %-2d partial directories
- %s separator, %% percent
- %{pattern,replacement}p substitutions (pattern is a regular expression)`,
	}

	manifestResolveFailedIssue = &Issue{
		id:   ManifestResolveFailedId,
		name: "manifest-resolve-failed",
		mdMsg: `
# Could not resolve bundled gems

A Gemfile was found and Bundler support is enabled, but the resolved gem list
could not be read. The archive would be missing required gems, so the build
stops here.

## Things you can try
- Regenerate the lock file:
~~~
$ bundle install
~~~
- Disable Bundler integration in config/warble.cue:
~~~cue
bundler: false
~~~`,
		docLinks: []HttpLink{"https://bundler.io/man/gemfile.5.html"},
	}

	lockfileMissingIssue = &Issue{
		id:   LockfileMissingId,
		name: "lockfile-missing",
		mdMsg: `
# Gemfile.lock not found

The Gemfile has never been resolved.

## Things you can try
~~~
$ bundle lock
~~~`,
	}

	detectionFailedIssue = &Issue{
		id:   DetectionFailedId,
		name: "detection-failed",
		mdMsg: `
# Framework detection failed

A framework marker was present but the environment could not be activated.
Detection continued with the next framework; the build was not aborted.

## Things you can try
- Run with --verbose to see which probe failed and why
- Set the booter explicitly in config/warble.cue:
~~~cue
webxml: booter: "rack"
~~~
- Disable detection with WARBLE_FRAMEWORK_DETECTION=false`,
	}

	unknownCategoryIssue = &Issue{
		id:   UnknownCategoryId,
		name: "unknown-category",
		mdMsg: `
# Unknown pathmap category

Valid categories are public_html, java_libs, java_classes, application,
webinf, gemspecs and gems.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		warblefileParseErrorIssue.Id():  warblefileParseErrorIssue,
		invalidGemPathIssue.Id():        invalidGemPathIssue,
		invalidPathmapIssue.Id():        invalidPathmapIssue,
		manifestResolveFailedIssue.Id(): manifestResolveFailedIssue,
		lockfileMissingIssue.Id():       lockfileMissingIssue,
		detectionFailedIssue.Id():       detectionFailedIssue,
		unknownCategoryIssue.Id():       unknownCategoryIssue,
	}
)

// Values returns every catalog issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by its slug.
func Lookup(name string) (*Issue, bool) {
	for _, i := range issues {
		if i.name == name {
			return i, true
		}
	}
	return nil, false
}
