// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates and decodes CUE documents against embedded
// schemas.
//
// Both the user configuration and the project's config/warble.cue go through
// the same flow: compile the schema, compile the user document and unify it
// with a schema definition, then validate and decode into a Go value.
//
//	//go:embed warble_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Warblefile](schema, data, "#Warble",
//	    cueutil.WithFilename("config/warble.cue"),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
