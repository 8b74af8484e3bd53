// SPDX-License-Identifier: MPL-2.0

// Package detect recognizes the web framework a project is built on.
//
// A Cascade runs probes in a fixed order (rails, merb, rack) and stops at the
// first one that applies. Each probe checks for a marker file, activates the
// framework through an Activator when one is needed, and then records what
// it learned in the build target: the booter, extra gems, extra directories
// and descriptor parameters. Activation failures never abort a build; they
// are logged and the cascade moves on.
package detect
