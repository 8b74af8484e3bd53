// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where the user configuration comes from. The zero value
// reads config.cue from ConfigDir.
type LoadOptions struct {
	// ConfigFilePath names the file given with --config. It must exist.
	ConfigFilePath string
	// ConfigDirPath replaces ConfigDir for the default lookup.
	ConfigDirPath string
}

// Provider is the seam the CLI loads user settings through; tests inject a
// static implementation.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider returns the Provider backed by config.cue, WARBLE_* variables
// and DefaultConfig.
func NewProvider() Provider { return fileProvider{} }

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// LoadWithPath loads like Provider.Load and also returns the file that was
// read, or "" when only defaults and the environment applied.
func LoadWithPath(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
