// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"slices"

	"github.com/warbler/warble/pkg/depset"
	"github.com/warbler/warble/pkg/pathmap"
)

// Snapshot is a serializable view of a resolved Config.
type Snapshot struct {
	WarName         string              `json:"war_name" toml:"war_name"`
	Booter          string              `json:"booter,omitempty" toml:"booter,omitempty"`
	Listener        string              `json:"servlet_context_listener" toml:"servlet_context_listener"`
	GemPath         string              `json:"gem_path" toml:"gem_path"`
	GemDependencies bool                `json:"gem_dependencies" toml:"gem_dependencies"`
	ExcludeLogs     bool                `json:"exclude_logs" toml:"exclude_logs"`
	Bundler         bool                `json:"bundler" toml:"bundler"`
	Features        []string            `json:"features" toml:"features"`
	Dirs            []string            `json:"dirs" toml:"dirs"`
	Includes        []string            `json:"includes" toml:"includes"`
	Excludes        []string            `json:"excludes" toml:"excludes"`
	JavaLibs        []string            `json:"java_libs" toml:"java_libs"`
	JavaClasses     []string            `json:"java_classes" toml:"java_classes"`
	PublicHTML      []string            `json:"public_html" toml:"public_html"`
	WebinfFiles     []string            `json:"webinf_files" toml:"webinf_files"`
	ManifestFile    string              `json:"manifest_file,omitempty" toml:"manifest_file,omitempty"`
	AutodeployDir   string              `json:"autodeploy_dir,omitempty" toml:"autodeploy_dir,omitempty"`
	Gems            []depset.Dependency `json:"gems" toml:"gems"`
	Pathmaps        map[string][]string `json:"pathmaps" toml:"pathmaps"`
	ContextParams   map[string]string   `json:"context_params" toml:"context_params"`
}

// Snapshot captures the current state of the configuration.
func (c *Config) Snapshot() Snapshot {
	s := Snapshot{
		WarName:         c.WarName,
		Booter:          c.WebXML.Booter().String(),
		Listener:        c.WebXML.ServletContextListener(),
		GemPath:         c.GemPath,
		GemDependencies: c.GemDependencies,
		ExcludeLogs:     c.ExcludeLogs,
		Bundler:         c.Bundler,
		Features:        make([]string, 0, len(c.Features)),
		Dirs:            nonNil(c.Dirs),
		Includes:        nonNil(c.Includes),
		Excludes:        nonNil(c.Excludes),
		JavaLibs:        nonNil(c.JavaLibs),
		JavaClasses:     nonNil(c.JavaClasses),
		PublicHTML:      nonNil(c.PublicHTML),
		WebinfFiles:     nonNil(c.WebinfFiles),
		ManifestFile:    c.ManifestFile,
		AutodeployDir:   c.AutodeployDir,
		Gems:            append([]depset.Dependency{}, c.Gems.List()...),
		Pathmaps:        make(map[string][]string),
		ContextParams:   c.WebXML.ContextParams(),
	}
	for _, f := range c.Features {
		s.Features = append(s.Features, f.String())
	}
	for _, cat := range pathmap.Categories() {
		for _, t := range c.Pathmaps.Templates(cat) {
			s.Pathmaps[cat.String()] = append(s.Pathmaps[cat.String()], t.String())
		}
	}
	return s
}

func nonNil(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return slices.Clone(s)
}
