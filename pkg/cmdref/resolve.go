package cmdref

import (
	"slices"

	"github.com/newtron-network/cmdref/pkg/util"
)

// FeatureSpec is one loaded feature document. It is immutable after Load
// and safe for concurrent use.
type FeatureSpec struct {
	Name     string
	Template Layer
	Exclude  []*Pattern

	properties map[string]*Property
	order      []string
}

// Properties returns property names in declaration order.
func (f *FeatureSpec) Properties() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Property returns the unresolved property.
func (f *FeatureSpec) Property(name string) (*Property, bool) {
	p, ok := f.properties[name]
	return p, ok
}

// Excluded returns the exclusion pattern matching platform, if any.
func (f *FeatureSpec) Excluded(platform string) (string, bool) {
	if i, ok := MatchPlatform(platform, f.Exclude); ok {
		return f.Exclude[i].String(), true
	}
	return "", false
}

// Resolve composes template, property base, and the first matching
// platform variant into the effective rule for platform.
func (f *FeatureSpec) Resolve(property, platform string) (*ResolvedRule, error) {
	if pat, ok := f.Excluded(platform); ok {
		return nil, &PlatformExcludedError{Feature: f.Name, Platform: platform, Pattern: pat}
	}
	prop, ok := f.properties[property]
	if !ok {
		return nil, &UnknownPropertyError{Feature: f.Name, Property: property}
	}
	if i, ok := MatchPlatform(platform, prop.Exclude); ok {
		return nil, &PlatformExcludedError{
			Feature:  f.Name,
			Property: property,
			Platform: platform,
			Pattern:  prop.Exclude[i].String(),
		}
	}

	merged := Layer{}.overlay(f.Template).overlay(prop.Base)

	rule := &ResolvedRule{
		Feature:  f.Name,
		Property: property,
		Platform: platform,
	}
	for _, variant := range prop.Variants {
		if variant.Pattern.Match(platform) {
			merged = merged.overlay(variant.Layer)
			rule.Variant = variant.Pattern.String()
			break
		}
	}

	// Copies: the rule is handed to callers, the FeatureSpec is shared.
	rule.QueryCommand = slices.Clone(merged.QueryCommand.Or(nil))
	rule.QueryPattern = slices.Clone(merged.QueryPattern.Or(nil))
	rule.SetCommands = slices.Clone(merged.SetCommands.Or(nil))
	rule.Default = merged.Default.Or(None)
	rule.Multiple = merged.Multiple.Or(false)
	rule.Kind = merged.Kind.Or(inferKind(rule.Default))

	if rule.Variant != "" {
		util.WithFeature(f.Name, property).Debugf("platform %s matched variant %s", platform, rule.Variant)
	}
	return rule, nil
}
