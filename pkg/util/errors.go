// Package util holds the module's logger and error vocabulary.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors in cmdref and device unwrap to one of
// these, so callers classify failures with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrValidationFailed = errors.New("validation failed")
	ErrUnsupported      = errors.New("unsupported on this platform")
	ErrMissingArgument  = errors.New("missing argument")
	ErrValueUnavailable = errors.New("value unavailable")
	ErrNotConnected     = errors.New("device not connected")
	ErrCLIRejected      = errors.New("command rejected by device")
)

// ValidationError lists every problem found in one document.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return ErrValidationFailed.Error()
	case 1:
		return "validation failed: " + e.Errors[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d problems:", len(e.Errors))
	for _, msg := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(msg)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ValidationBuilder accumulates problems so a loader can report all of
// them at once. The zero value is ready to use.
type ValidationBuilder struct {
	errs []string
}

// AddError records a problem.
func (v *ValidationBuilder) AddError(msg string) {
	v.errs = append(v.errs, msg)
}

// AddErrorf records a formatted problem.
func (v *ValidationBuilder) AddErrorf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

// Len returns the number of problems recorded.
func (v *ValidationBuilder) Len() int {
	return len(v.errs)
}

// Build returns a *ValidationError, or nil when nothing was recorded.
func (v *ValidationBuilder) Build() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: append([]string(nil), v.errs...)}
}
