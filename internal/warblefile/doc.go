// SPDX-License-Identifier: MPL-2.0

// Package warblefile loads the per-project override file config/warble.cue.
//
// The file is validated against the #Warble schema and applied to a
// warconfig.Config as its override callback, after framework detection and
// before the gem path is relocated.
package warblefile
