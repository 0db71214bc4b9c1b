package cmdref

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Extract parses query output according to the rule.
//
// The returned value depends on the rule:
//
//	boolean              bool, true iff a line matches
//	int / string         int or string from the first matching line
//	tuple (2+ groups)    []any, one element per capture group
//	multiple             []any, one element per matching line
//
// All patterns but the last are pre-filters: each selects the block
// indented under its first matching line, and the next pattern searches
// only that block. When nothing matches, the declared default is
// returned; without a default, single values fail with
// *ExtractionMissError and multiple values return an empty list.
func Extract(rule *ResolvedRule, raw string) (any, error) {
	if rule.Kind == KindBoolean {
		return extractPresence(rule, raw)
	}
	if len(rule.QueryPattern) == 0 {
		return fallback(rule, "")
	}

	pats, err := compileAll(rule.QueryPattern)
	if err != nil {
		return nil, err
	}
	final := pats[len(pats)-1]
	region, found := narrow(splitLines(raw), pats[:len(pats)-1])

	if rule.Multiple || rule.Kind == KindStringArray {
		var out []any
		for _, ln := range region {
			v, ok, err := matchLine(rule, final, ln)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, v)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
		if def, ok := rule.Default.Get(); ok {
			return coerceDefault(rule, def, true)
		}
		return []any{}, nil
	}

	if found {
		for _, ln := range region {
			v, ok, err := matchLine(rule, final, ln)
			if err != nil {
				return nil, err
			}
			if ok {
				return v, nil
			}
		}
	}
	return fallback(rule, final.String())
}

// ExtractBool extracts a boolean property.
func ExtractBool(rule *ResolvedRule, raw string) (bool, error) {
	v, err := Extract(rule, raw)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

// ExtractString extracts a single string value.
func ExtractString(rule *ResolvedRule, raw string) (string, error) {
	v, err := Extract(rule, raw)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(v)
}

// ExtractInt extracts a single integer value.
func ExtractInt(rule *ResolvedRule, raw string) (int, error) {
	v, err := Extract(rule, raw)
	if err != nil {
		return 0, err
	}
	return cast.ToIntE(v)
}

// ExtractStrings extracts a multi-valued property as strings.
func ExtractStrings(rule *ResolvedRule, raw string) ([]string, error) {
	v, err := Extract(rule, raw)
	if err != nil {
		return nil, err
	}
	return cast.ToStringSliceE(v)
}

func extractPresence(rule *ResolvedRule, raw string) (any, error) {
	if len(rule.QueryPattern) == 0 {
		if def, ok := rule.Default.Get(); ok {
			return coerce(KindBoolean, def)
		}
		return false, nil
	}
	pats, err := compileAll(rule.QueryPattern)
	if err != nil {
		return nil, err
	}
	region, found := narrow(splitLines(raw), pats[:len(pats)-1])
	if !found {
		return false, nil
	}
	final := pats[len(pats)-1]
	for _, ln := range region {
		if ln.matches(final) {
			return true, nil
		}
	}
	return false, nil
}

// matchLine applies p to one line and converts the captures.
func matchLine(rule *ResolvedRule, p *Pattern, ln outputLine) (any, bool, error) {
	text, m := ln.find(p)
	if m == nil {
		return nil, false, nil
	}
	k := elemKind(rule.Kind)
	groups := len(m)/2 - 1

	switch groups {
	case 0:
		v, err := coerceCapture(rule, k, text[m[0]:m[1]])
		return v, err == nil, err
	case 1:
		if m[2] < 0 {
			return nil, false, nil
		}
		v, err := coerceCapture(rule, k, text[m[2]:m[3]])
		return v, err == nil, err
	}

	tuple := make([]any, groups)
	for j := 0; j < groups; j++ {
		start, end := m[2*(j+1)], m[2*(j+1)+1]
		if start < 0 {
			v, err := defaultField(rule, j)
			if err != nil {
				return nil, false, err
			}
			tuple[j] = v
			continue
		}
		v, err := coerceCapture(rule, k, text[start:end])
		if err != nil {
			return nil, false, err
		}
		tuple[j] = v
	}
	return tuple, true, nil
}

func coerceCapture(rule *ResolvedRule, k Kind, s string) (any, error) {
	v, err := coerce(k, s)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot convert %q to %s: %w", rule.name(), s, k, err)
	}
	return v, nil
}

// defaultField returns field j of a tuple default, or nil.
func defaultField(rule *ResolvedRule, j int) (any, error) {
	def, ok := rule.Default.Get()
	if !ok {
		return nil, nil
	}
	list, ok := def.([]any)
	if !ok || j >= len(list) {
		return nil, nil
	}
	return coerce(elemKind(rule.Kind), list[j])
}

func fallback(rule *ResolvedRule, pattern string) (any, error) {
	if def, ok := rule.Default.Get(); ok {
		return coerceDefault(rule, def, false)
	}
	return nil, &ExtractionMissError{Feature: rule.Feature, Property: rule.Property, Pattern: pattern}
}

func coerceDefault(rule *ResolvedRule, def any, multi bool) (any, error) {
	if list, ok := def.([]any); ok {
		out := make([]any, len(list))
		for i, e := range list {
			v, err := coerce(elemKind(rule.Kind), e)
			if err != nil {
				return nil, fmt.Errorf("%s: default_value: %w", rule.name(), err)
			}
			out[i] = v
		}
		return out, nil
	}
	v, err := coerce(elemKind(rule.Kind), def)
	if err != nil {
		return nil, fmt.Errorf("%s: default_value: %w", rule.name(), err)
	}
	if multi {
		return []any{v}, nil
	}
	return v, nil
}

func compileAll(tokens []string) ([]*Pattern, error) {
	pats := make([]*Pattern, len(tokens))
	for i, t := range tokens {
		p, err := compileToken(t)
		if err != nil {
			return nil, err
		}
		pats[i] = p
	}
	return pats, nil
}

// outputLine is one line of device output. raw keeps the leading
// whitespace, text is trimmed.
type outputLine struct {
	indent int
	raw    string
	text   string
}

// find matches p against the line as printed, then against the trimmed
// text, and returns the string the indexes refer to.
func (ln outputLine) find(p *Pattern) (string, []int) {
	if ln.text == "" {
		return "", nil
	}
	if m := p.re.FindStringSubmatchIndex(ln.raw); m != nil {
		return ln.raw, m
	}
	if ln.raw == ln.text {
		return "", nil
	}
	return ln.text, p.re.FindStringSubmatchIndex(ln.text)
}

func (ln outputLine) matches(p *Pattern) bool {
	_, m := ln.find(p)
	return m != nil
}

func splitLines(raw string) []outputLine {
	raw = strings.ReplaceAll(raw, "\r", "")
	parts := strings.Split(raw, "\n")
	lines := make([]outputLine, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimLeft(p, " \t")
		lines = append(lines, outputLine{
			indent: len(p) - len(trimmed),
			raw:    strings.TrimRight(p, " \t"),
			text:   strings.TrimSpace(trimmed),
		})
	}
	return lines
}

// narrow applies each pre-filter in turn, keeping the block indented under
// the first matching line.
func narrow(lines []outputLine, prefilters []*Pattern) ([]outputLine, bool) {
	for _, p := range prefilters {
		idx := -1
		for i, ln := range lines {
			if ln.matches(p) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		parent := lines[idx].indent
		end := idx + 1
		for end < len(lines) && (lines[end].text == "" || lines[end].indent > parent) {
			end++
		}
		lines = lines[idx+1 : end]
	}
	return lines, true
}

// Normalize converts a caller-supplied value to the type Extract would
// return for the rule, so the two compare with reflect.DeepEqual. Slices
// of any element type become []any; a scalar given for a multi-valued
// rule becomes a one-element list.
func (r *ResolvedRule) Normalize(v any) (any, error) {
	out, err := r.normalize(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name(), err)
	}
	if _, isList := out.([]any); out != nil && !isList && (r.Multiple || r.Kind == KindStringArray) {
		return []any{out}, nil
	}
	return out, nil
}

func (r *ResolvedRule) normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			e, err := r.normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	}
	return coerce(elemKind(r.Kind), v)
}
