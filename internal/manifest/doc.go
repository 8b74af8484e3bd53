// SPDX-License-Identifier: MPL-2.0

// Package manifest reads a project's resolved dependency manifest.
//
// The Bundler resolver parses Gemfile.lock, reports the gems that belong in
// the archive, and writes an environment file describing where those gems
// live once packaged.
package manifest
