// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"errors"
	"fmt"
)

// FeatureGemJar packages the gem repository in a jar under WEB-INF/lib.
const FeatureGemJar Feature = "gemjar"

// ErrInvalidFeature is returned when a Feature value is not recognized.
var ErrInvalidFeature = errors.New("invalid feature")

type (
	// Feature is an optional packaging behavior.
	Feature string

	// InvalidFeatureError is returned when a Feature value is not recognized.
	// It wraps ErrInvalidFeature for errors.Is() compatibility.
	InvalidFeatureError struct {
		Value Feature
	}
)

// String returns the string representation of the Feature.
func (f Feature) String() string { return string(f) }

// Validate returns an error if the Feature is not one of the defined values.
func (f Feature) Validate() error {
	switch f {
	case FeatureGemJar:
		return nil
	default:
		return &InvalidFeatureError{Value: f}
	}
}

// Error implements the error interface.
func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("invalid feature %q (valid: gemjar)", e.Value)
}

// Unwrap returns ErrInvalidFeature for errors.Is() compatibility.
func (e *InvalidFeatureError) Unwrap() error { return ErrInvalidFeature }
