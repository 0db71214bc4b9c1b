// Package cli provides output helpers for the cmdref command.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("32", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("33", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("31", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("1", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return paint("2", s) }

// FormatValue renders an extracted property value for display.
// Lists print one element per comma, tuples in parentheses.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "(none)"
	case string:
		if t == "" {
			return `""`
		}
		return t
	case []any:
		parts := make([]string, len(t))
		flat := false
		for i, e := range t {
			if _, ok := e.([]any); ok {
				parts[i] = "(" + strings.Trim(FormatValue(e), "[]") + ")"
				continue
			}
			parts[i] = FormatValue(e)
			flat = true
		}
		if flat {
			return "[" + strings.Join(parts, ", ") + "]"
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// Verdict renders a pass/fail word, colored.
func Verdict(ok bool) string {
	if ok {
		return Green("ok")
	}
	return Red("FAILED")
}
