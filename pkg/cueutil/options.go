// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps the size of CUE documents accepted for parsing (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	// Option configures ParseAndDecode.
	Option func(*parseOptions)

	parseOptions struct {
		filename    string
		concrete    bool
		maxFileSize int64
	}
)

func defaultOptions() parseOptions {
	return parseOptions{
		concrete:    true,
		maxFileSize: DefaultMaxFileSize,
	}
}

// WithFilename sets the file name reported in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) { o.filename = name }
}

// WithConcrete controls whether every value must be concrete after
// unification. Documents made of optional fields should pass false.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) { o.concrete = concrete }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}
