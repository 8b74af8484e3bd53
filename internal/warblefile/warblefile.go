// SPDX-License-Identifier: MPL-2.0

package warblefile

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	billy "github.com/go-git/go-billy/v5"

	"github.com/warbler/warble/internal/issue"
	"github.com/warbler/warble/internal/warconfig"
	"github.com/warbler/warble/pkg/cueutil"
	"github.com/warbler/warble/pkg/fspath"
	"github.com/warbler/warble/pkg/paramtree"
	"github.com/warbler/warble/pkg/pathmap"
)

const (
	// DefaultPath is the project-relative location of the override file.
	DefaultPath = "config/warble.cue"

	schemaPath = "#Warble"
)

//go:embed warble_schema.cue
var schema []byte

type (
	// File is a decoded override file. Unset fields leave the configuration
	// untouched; list fields replace the configured list.
	File struct {
		WarName         *string   `json:"war_name"`
		GemPath         *string   `json:"gem_path"`
		GemDependencies *bool     `json:"gem_dependencies"`
		ExcludeLogs     *bool     `json:"exclude_logs"`
		Bundler         *bool     `json:"bundler"`
		Features        *[]string `json:"features"`
		Dirs            *[]string `json:"dirs"`
		Includes        *[]string `json:"includes"`
		Excludes        *[]string `json:"excludes"`
		JavaLibs        *[]string `json:"java_libs"`
		JavaClasses     *[]string `json:"java_classes"`
		PublicHTML      *[]string `json:"public_html"`
		WebinfFiles     *[]string `json:"webinf_files"`
		ManifestFile    *string   `json:"manifest_file"`
		AutodeployDir   *string   `json:"autodeploy_dir"`
		RemoveGems      []string  `json:"remove_gems"`

		path  string
		value cue.Value
	}

	// entry is an ordered key/value pair read from a CUE struct.
	entry struct {
		key   string
		value cue.Value
	}
)

// Load reads and validates the override file at DefaultPath. A missing file
// yields a nil File, whose Apply is a no-op.
func Load(fs billy.Filesystem) (*File, error) {
	return LoadPath(fs, DefaultPath)
}

// LoadPath reads and validates the override file at name.
func LoadPath(fs billy.Filesystem, name string) (*File, error) {
	data, err := fspath.ReadFile(fs, name)
	if err != nil {
		if fspath.IsNotExist(err) {
			return nil, nil
		}
		return nil, parseError(name, err)
	}
	f, err := Parse(data, name)
	if err != nil {
		return nil, parseError(name, err)
	}
	return f, nil
}

// Parse decodes override file content. name is used in error messages.
func Parse(data []byte, name string) (*File, error) {
	res, err := cueutil.ParseAndDecode[File](schema, data, schemaPath, cueutil.WithFilename(name))
	if err != nil {
		return nil, err
	}
	f := res.Value
	f.path = name
	f.value = res.Unified
	return f, nil
}

func parseError(name string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load project overrides").
		WithResource(name).
		WithSuggestion("Check the CUE syntax and the field names against the #Warble schema").
		WithIssue(issue.WarblefileParseErrorId).
		Wrap(err).
		BuildError()
}

// Path returns the file the overrides were read from.
func (f *File) Path() string { return f.path }

// Apply writes the overrides into c. It matches the warconfig override
// callback signature.
func (f *File) Apply(c *warconfig.Config) error {
	if f == nil {
		return nil
	}

	setString(&c.WarName, f.WarName)
	setString(&c.GemPath, f.GemPath)
	setString(&c.ManifestFile, f.ManifestFile)
	setString(&c.AutodeployDir, f.AutodeployDir)
	setBool(&c.GemDependencies, f.GemDependencies)
	setBool(&c.ExcludeLogs, f.ExcludeLogs)
	setBool(&c.Bundler, f.Bundler)
	setList(&c.Dirs, f.Dirs)
	setList(&c.Includes, f.Includes)
	setList(&c.Excludes, f.Excludes)
	setList(&c.JavaLibs, f.JavaLibs)
	setList(&c.JavaClasses, f.JavaClasses)
	setList(&c.PublicHTML, f.PublicHTML)
	setList(&c.WebinfFiles, f.WebinfFiles)
	if f.Features != nil {
		c.Features = make([]warconfig.Feature, 0, len(*f.Features))
		for _, name := range *f.Features {
			c.Features = append(c.Features, warconfig.Feature(name))
		}
	}

	gems, err := fields(f.value.LookupPath(cue.ParsePath("gems")))
	if err != nil {
		return fmt.Errorf("%s: gems: %w", f.path, err)
	}
	for _, g := range gems {
		constraint, err := g.value.String()
		if err != nil {
			return fmt.Errorf("%s: gems.%s: %w", f.path, g.key, err)
		}
		c.Gems.Add(g.key, constraint)
	}
	for _, name := range f.RemoveGems {
		c.Gems.Remove(name)
	}

	if err := f.applyPathmaps(c.Pathmaps); err != nil {
		return err
	}
	return f.applyWebXML(c.WebXML)
}

func (f *File) applyPathmaps(set *pathmap.Set) error {
	cats, err := fields(f.value.LookupPath(cue.ParsePath("pathmaps")))
	if err != nil {
		return fmt.Errorf("%s: pathmaps: %w", f.path, err)
	}
	for _, cat := range cats {
		var patterns []string
		if err := cat.value.Decode(&patterns); err != nil {
			return fmt.Errorf("%s: pathmaps.%s: %w", f.path, cat.key, err)
		}
		for _, p := range patterns {
			if err := set.Add(pathmap.Category(cat.key), p); err != nil {
				return fmt.Errorf("%s: pathmaps.%s: %w", f.path, cat.key, err)
			}
		}
	}
	return nil
}

func (f *File) applyWebXML(tree *paramtree.Tree) error {
	return walkWebXML(f.value.LookupPath(cue.ParsePath("webxml")), "", func(key string, value any) error {
		if err := tree.Set(key, value); err != nil {
			return fmt.Errorf("%s: webxml.%s: %w", f.path, key, err)
		}
		return nil
	})
}

// walkWebXML visits every leaf below v in declaration order. Lists decode to
// []string; other scalars keep their CUE kind.
func walkWebXML(v cue.Value, prefix string, visit func(string, any) error) error {
	entries, err := fields(v)
	if err != nil {
		return err
	}
	for _, e := range entries {
		key := e.key
		if prefix != "" {
			key = prefix + "." + key
		}

		var value any
		switch e.value.IncompleteKind() {
		case cue.StructKind:
			if err := walkWebXML(e.value, key, visit); err != nil {
				return err
			}
			continue
		case cue.ListKind:
			var list []string
			if err := e.value.Decode(&list); err != nil {
				return fmt.Errorf("webxml.%s: %w", key, err)
			}
			value = list
		case cue.NullKind:
			value = nil
		default:
			if err := e.value.Decode(&value); err != nil {
				return fmt.Errorf("webxml.%s: %w", key, err)
			}
		}
		if err := visit(key, value); err != nil {
			return err
		}
	}
	return nil
}

// fields lists the regular fields of a struct value in declaration order.
// A missing value has no fields.
func fields(v cue.Value) ([]entry, error) {
	if !v.Exists() {
		return nil, nil
	}
	it, err := v.Fields()
	if err != nil {
		return nil, err
	}
	var out []entry
	for it.Next() {
		key := it.Selector().Unquoted()
		if strings.TrimSpace(key) == "" {
			return nil, errors.New("empty key")
		}
		out = append(out, entry{key: key, value: it.Value()})
	}
	return out, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src *[]string) {
	if src != nil {
		*dst = append([]string{}, (*src)...)
	}
}
