package cmdref

import (
	"fmt"

	"github.com/newtron-network/cmdref/pkg/util"
)

// SpecLoadError reports a malformed specification document. It is
// detected at load time and is fatal for the feature.
type SpecLoadError struct {
	Feature string
	Err     error
}

func (e *SpecLoadError) Error() string {
	return fmt.Sprintf("loading feature %s: %v", e.Feature, e.Err)
}

func (e *SpecLoadError) Unwrap() []error {
	return []error{util.ErrInvalidConfig, e.Err}
}

// UnknownFeatureError reports a feature absent from the registry.
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %q", e.Feature)
}

func (e *UnknownFeatureError) Unwrap() error {
	return util.ErrNotFound
}

// UnknownPropertyError reports a property absent from a feature.
type UnknownPropertyError struct {
	Feature  string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("feature %s has no property %q", e.Feature, e.Property)
}

func (e *UnknownPropertyError) Unwrap() error {
	return util.ErrNotFound
}

// PlatformExcludedError reports a feature or property that does not exist
// on the platform. Callers usually treat it as "absent".
type PlatformExcludedError struct {
	Feature  string
	Property string // empty when the whole feature is excluded
	Platform string
	Pattern  string
}

func (e *PlatformExcludedError) Error() string {
	what := e.Feature
	if e.Property != "" {
		what += "." + e.Property
	}
	return fmt.Sprintf("%s is not supported on platform %q (excluded by %s)", what, e.Platform, e.Pattern)
}

func (e *PlatformExcludedError) Unwrap() error {
	return util.ErrUnsupported
}

// MissingArgumentError reports a template placeholder with no value.
type MissingArgumentError struct {
	Feature  string
	Property string
	Name     string
	Template string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s.%s: no value for <%s> in %q", e.Feature, e.Property, e.Name, e.Template)
}

func (e *MissingArgumentError) Unwrap() error {
	return util.ErrMissingArgument
}

// ExtractionMissError reports query output that did not match and a
// property with no default to fall back on.
type ExtractionMissError struct {
	Feature  string
	Property string
	Pattern  string
}

func (e *ExtractionMissError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("%s.%s: value unavailable (no query pattern)", e.Feature, e.Property)
	}
	return fmt.Sprintf("%s.%s: value unavailable (no match for %s)", e.Feature, e.Property, e.Pattern)
}

func (e *ExtractionMissError) Unwrap() error {
	return util.ErrValueUnavailable
}
