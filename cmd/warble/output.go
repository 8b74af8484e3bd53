// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatTOML outputFormat = "toml"
)

// ErrInvalidOutputFormat is returned when a --format value is not recognized.
var ErrInvalidOutputFormat = errors.New("invalid output format")

type (
	// outputFormat selects how a command prints structured results.
	outputFormat string

	// InvalidOutputFormatError is returned when a --format value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value string
	}
)

// Validate returns an error if the format is not one of the defined values.
func (f outputFormat) Validate() error {
	switch f {
	case formatText, formatJSON, formatTOML:
		return nil
	default:
		return &InvalidOutputFormatError{Value: string(f)}
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// encode writes v as JSON or TOML. Text output is command specific.
func encode(w io.Writer, f outputFormat, v any) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("encode: %w", &InvalidOutputFormatError{Value: string(f)})
	}
}
