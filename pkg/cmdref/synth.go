package cmdref

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/newtron-network/cmdref/pkg/util"
)

var (
	// <name>, not preceded by "?P" (a named regexp group).
	placeholderRe = regexp.MustCompile(`(\?P)?<([A-Za-z_][A-Za-z0-9_]*)>`)

	// [ ... ] marks a qualifier emitted only when configuring.
	qualifierRe = regexp.MustCompile(`\[([^\[\]]*)\]`)
)

// Synthesize renders the rule's set commands with args.
//
// Polarity is chosen by the caller through args["state"]: "" configures,
// "no" removes. When removing, bracketed qualifiers are dropped together
// with any placeholders inside them, so "<state> timers bgp[ <ka> <hold>]"
// becomes "no timers bgp". Templates that render to nothing are omitted.
func Synthesize(rule *ResolvedRule, args Args) ([]string, error) {
	negated := args.Negated()
	cmds := make([]string, 0, len(rule.SetCommands))
	for _, tmpl := range rule.SetCommands {
		line := applyQualifiers(tmpl, negated)
		line, err := substitute(rule, tmpl, line, args, argString)
		if err != nil {
			return nil, err
		}
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		cmds = append(cmds, line)
	}
	util.WithFeature(rule.Feature, rule.Property).Debugf("synthesized %q", cmds)
	return cmds, nil
}

// Bind returns a copy of the rule with args substituted into the query
// commands and query patterns. Values placed into patterns are quoted so
// they match literally.
func (r *ResolvedRule) Bind(args Args) (*ResolvedRule, error) {
	out := *r
	out.QueryCommand = make([]string, len(r.QueryCommand))
	for i, tmpl := range r.QueryCommand {
		line, err := substitute(r, tmpl, tmpl, args, argString)
		if err != nil {
			return nil, err
		}
		out.QueryCommand[i] = strings.Join(strings.Fields(line), " ")
	}
	out.QueryPattern = make([]string, len(r.QueryPattern))
	for i, tmpl := range r.QueryPattern {
		render := argString
		if isRegexKey(tmpl) {
			render = quotedArgString
		}
		line, err := substitute(r, tmpl, tmpl, args, render)
		if err != nil {
			return nil, err
		}
		out.QueryPattern[i] = line
	}
	return &out, nil
}

func applyQualifiers(tmpl string, negated bool) string {
	if negated {
		return qualifierRe.ReplaceAllString(tmpl, "")
	}
	return qualifierRe.ReplaceAllString(tmpl, "$1")
}

func substitute(rule *ResolvedRule, tmpl, line string, args Args, render func(any) string) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(line, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		if sub[1] != "" {
			return m
		}
		v, ok := args[sub[2]]
		if !ok {
			if missing == "" {
				missing = sub[2]
			}
			return m
		}
		return render(v)
	})
	if missing != "" {
		return "", &MissingArgumentError{
			Feature:  rule.Feature,
			Property: rule.Property,
			Name:     missing,
			Template: tmpl,
		}
	}
	return out, nil
}

func argString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, " ")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = argString(e)
		}
		return strings.Join(parts, " ")
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func quotedArgString(v any) string {
	return regexp.QuoteMeta(argString(v))
}
