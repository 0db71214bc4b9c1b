package cmdref

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled platform or token pattern.
//
// Text written between slashes ("/N7/", "/^feature vni$/") is a regular
// expression; a trailing "i" after the closing slash makes it
// case-insensitive. Anything else is matched as a literal substring.
type Pattern struct {
	text string
	re   *regexp.Regexp
}

// String returns the pattern as written in the document.
func (p *Pattern) String() string {
	return p.text
}

// Match reports whether the pattern matches anywhere in s.
func (p *Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// isRegexKey reports whether a document key is a platform variant key.
func isRegexKey(key string) bool {
	_, _, ok := splitRegex(key)
	return ok
}

func splitRegex(text string) (expr, flags string, ok bool) {
	if len(text) < 2 || text[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(text, '/')
	if end == 0 {
		return "", "", false
	}
	flags = text[end+1:]
	if flags != "" && flags != "i" {
		return "", "", false
	}
	return text[1:end], flags, true
}

// compileToken compiles a pattern as written in a document.
func compileToken(text string) (*Pattern, error) {
	expr, flags, ok := splitRegex(text)
	if !ok {
		return &Pattern{text: text, re: regexp.MustCompile(regexp.QuoteMeta(text))}, nil
	}
	if flags == "i" {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", text, err)
	}
	return &Pattern{text: text, re: re}, nil
}

// MustPattern compiles text or panics. Intended for tests and constants.
func MustPattern(text string) *Pattern {
	p, err := compileToken(text)
	if err != nil {
		panic(err)
	}
	return p
}

// MatchPlatform returns the index of the first pattern matching the
// platform identifier. Order is the caller's declaration order; later
// patterns may be deliberately broader fallbacks, so no pattern is
// preferred for being more specific.
func MatchPlatform(platform string, patterns []*Pattern) (int, bool) {
	for i, p := range patterns {
		if p.Match(platform) {
			return i, true
		}
	}
	return -1, false
}
