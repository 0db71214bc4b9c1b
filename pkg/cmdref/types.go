// Package cmdref resolves per-platform CLI command references.
//
// A feature (vni, bgp, vpc, ...) is described by a YAML document mapping
// property names to the commands that configure them and the patterns that
// read them back. Each property has up to three layers:
//
//	_template        fields inherited by every property of the feature
//	<property>       the property's own base fields
//	/<regex>/        platform variant, first match in declaration order
//
// Resolving (feature, property, platform) composes those layers into a
// ResolvedRule. Synthesize turns a rule plus runtime arguments into the
// command lines for a set; Extract turns raw query output into a typed
// value for a get. Nothing in this package performs I/O.
package cmdref

import (
	"fmt"
	"strings"
)

// NegationKeyword is the value of the "state" argument that removes
// configuration instead of adding it.
const NegationKeyword = "no"

// StateArg is the placeholder name callers use to select polarity.
const StateArg = "state"

// Kind is the value type of a property.
type Kind string

const (
	KindBoolean     Kind = "boolean"
	KindInt         Kind = "int"
	KindString      Kind = "string"
	KindStringArray Kind = "string_array"
)

// ParseKind parses a kind name as written in a specification document.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boolean", "bool":
		return KindBoolean, nil
	case "int", "integer":
		return KindInt, nil
	case "string":
		return KindString, nil
	case "string_array", "array":
		return KindStringArray, nil
	}
	return "", fmt.Errorf("unknown kind %q (valid: boolean, int, string, string_array)", s)
}

// Opt is a field that may or may not be declared by a layer.
type Opt[T any] struct {
	val T
	set bool
}

// Some returns a declared field holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, set: true}
}

// Get returns the value and whether it was declared.
func (o Opt[T]) Get() (T, bool) {
	return o.val, o.set
}

// IsSet reports whether the field was declared.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Or returns the value if declared, otherwise def.
func (o Opt[T]) Or(def T) T {
	if o.set {
		return o.val
	}
	return def
}

// Value is a property's default value. The zero Value is None: the
// property has no default and cannot be reset by negation.
type Value struct {
	v  any
	ok bool
}

// None is the explicit "no default" marker.
var None = Value{}

// ValueOf wraps v as a present default.
func ValueOf(v any) Value {
	return Value{v: v, ok: true}
}

// Get returns the default and whether one exists.
func (v Value) Get() (any, bool) {
	return v.v, v.ok
}

// Present reports whether a default exists.
func (v Value) Present() bool {
	return v.ok
}

func (v Value) String() string {
	if !v.ok {
		return "(none)"
	}
	return fmt.Sprintf("%v", v.v)
}

// Args maps placeholder names to values for template substitution.
type Args map[string]any

// With returns a copy of a with key set to value.
func (a Args) With(key string, value any) Args {
	out := make(Args, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[key] = value
	return out
}

// Negated reports whether the state argument selects removal.
func (a Args) Negated() bool {
	s, ok := a[StateArg].(string)
	return ok && strings.TrimSpace(s) == NegationKeyword
}

// Layer is one partial rule: template, property base, or platform variant.
type Layer struct {
	QueryCommand       Opt[[]string] // config_get
	QueryPattern       Opt[[]string] // config_get_token
	QueryPatternAppend Opt[[]string] // config_get_token_append
	SetCommands        Opt[[]string] // config_set
	SetCommandsAppend  Opt[[]string] // config_set_append
	Kind               Opt[Kind]     // kind
	Default            Opt[Value]    // default_value
	Multiple           Opt[bool]     // multiple
}

// overlay returns base with top's declared fields applied. Plain fields
// replace; *Append fields concatenate after whatever list the merge has
// produced so far.
func (base Layer) overlay(top Layer) Layer {
	out := base
	if top.QueryCommand.set {
		out.QueryCommand = top.QueryCommand
	}
	if top.QueryPattern.set {
		out.QueryPattern = top.QueryPattern
	}
	if top.SetCommands.set {
		out.SetCommands = top.SetCommands
	}
	if top.Kind.set {
		out.Kind = top.Kind
	}
	if top.Default.set {
		out.Default = top.Default
	}
	if top.Multiple.set {
		out.Multiple = top.Multiple
	}
	if extra, ok := top.QueryPatternAppend.Get(); ok {
		out.QueryPattern = Some(concat(out.QueryPattern.val, extra))
	}
	if extra, ok := top.SetCommandsAppend.Get(); ok {
		out.SetCommands = Some(concat(out.SetCommands.val, extra))
	}
	out.QueryPatternAppend = Opt[[]string]{}
	out.SetCommandsAppend = Opt[[]string]{}
	return out
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// PlatformVariant overrides a property's base layer on matching platforms.
type PlatformVariant struct {
	Pattern *Pattern
	Layer   Layer
}

// Property is one unresolved property of a feature.
type Property struct {
	Name     string
	Base     Layer
	Variants []PlatformVariant // declaration order
	Exclude  []*Pattern
}

// ResolvedRule is the effective description of a property on one platform.
type ResolvedRule struct {
	Feature  string
	Property string
	Platform string
	Variant  string // text of the selected variant pattern, empty for base

	QueryCommand []string
	QueryPattern []string
	SetCommands  []string
	Kind         Kind
	Default      Value
	Multiple     bool
}

// Queryable reports whether the rule has a query command and a pattern.
func (r *ResolvedRule) Queryable() bool {
	return len(r.QueryCommand) > 0 && len(r.QueryPattern) > 0
}

// Settable reports whether the rule has set commands.
func (r *ResolvedRule) Settable() bool {
	return len(r.SetCommands) > 0
}

// IsTuple reports whether the final pattern has more than one capture group.
func (r *ResolvedRule) IsTuple() bool {
	if len(r.QueryPattern) == 0 {
		return false
	}
	p, err := compileToken(r.QueryPattern[len(r.QueryPattern)-1])
	if err != nil {
		return false
	}
	return p.re.NumSubexp() > 1
}

func (r *ResolvedRule) name() string {
	return r.Feature + "." + r.Property
}

// inferKind picks a kind for a rule that does not declare one.
func inferKind(def Value) Kind {
	v, ok := def.Get()
	if !ok {
		return KindString
	}
	switch v.(type) {
	case bool:
		return KindBoolean
	case int, int64, uint64:
		return KindInt
	case []any, []string:
		return KindStringArray
	}
	return KindString
}
