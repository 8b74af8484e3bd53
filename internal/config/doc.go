// SPDX-License-Identifier: MPL-2.0

// Package config handles the warble user configuration using Viper with CUE as
// the file format.
//
// Configuration is loaded from ~/.config/warble/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/warble/config.cue on
// macOS, %APPDATA%\warble\config.cue on Windows). Values can be overridden
// with WARBLE_* environment variables, for example WARBLE_BUNDLER=false or
// WARBLE_UI_VERBOSE=true.
//
// The file is validated against an embedded CUE schema (config_schema.cue)
// before it is merged over the defaults. Project-specific settings live in the
// project's config/warble.cue and are handled by the warblefile package.
package config
