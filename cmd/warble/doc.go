// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the warble CLI.
//
// The commands resolve a project's archive configuration the same way a
// build would and print parts of it: the whole configuration, the deployment
// descriptor parameters, or where individual files land in the archive.
package cmd
