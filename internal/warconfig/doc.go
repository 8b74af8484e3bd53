// SPDX-License-Identifier: MPL-2.0

// Package warconfig resolves the build configuration of a web archive.
//
// New seeds defaults from the project directory, detects the framework,
// applies the caller's overrides, relocates the gem directory when it was
// customized, resolves bundled gems, and finally computes exclusions. The
// resulting Config is read by archive writers and is not safe for
// concurrent mutation.
package warconfig
