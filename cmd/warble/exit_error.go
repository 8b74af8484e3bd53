// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitFailure is the exit code for a project that could not be resolved.
	ExitFailure = 1
	// ExitUsage is the exit code for a bad flag value or argument.
	ExitUsage = 2
)

// ExitError carries the process exit code for a failed command so RunE
// handlers never call os.Exit themselves.
type ExitError struct {
	Code int
	Err  error
}

// usageError marks err as a usage mistake rather than a project failure.
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitUsage, Err: err}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
