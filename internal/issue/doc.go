// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for warble.
//
// ActionableError records which configuration step failed, the file or path
// involved, and suggestions for fixing it. Errors may point at a catalog
// Issue, a Markdown page rendered in the terminal with more guidance.
package issue
