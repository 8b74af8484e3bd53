// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/warbler/warble/pkg/fspath"
)

// appendExcludes adds the tool's own directory when it lives inside the
// project, then the log pattern when ExcludeLogs is set.
func (c *Config) appendExcludes(home string) {
	if home != "" {
		abs, err := filepath.Abs(home)
		if err == nil {
			if rel, err := fspath.Within(c.root, abs); err == nil {
				c.Excludes = append(c.Excludes, rel)
			}
		}
	}
	if c.ExcludeLogs {
		c.Excludes = append(c.Excludes, LogExcludePattern)
	}
}

// IsExcluded reports whether a project-relative path matches an exclusion.
// A pattern naming a directory also excludes everything below it.
func (c *Config) IsExcluded(p string) bool {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
	for _, pattern := range c.Excludes {
		pattern = strings.TrimSuffix(pattern, "/")
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", p); ok {
			return true
		}
	}
	return false
}
