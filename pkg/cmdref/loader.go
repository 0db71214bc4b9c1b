package cmdref

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/newtron-network/cmdref/pkg/util"
)

// Reserved document keys.
const (
	templateKey = "_template"
	excludeKey  = "_exclude"
)

// rawLayer is the decoded form of one field block.
type rawLayer struct {
	ConfigGet            []string `mapstructure:"config_get"`
	ConfigGetToken       []string `mapstructure:"config_get_token"`
	ConfigGetTokenAppend []string `mapstructure:"config_get_token_append"`
	ConfigSet            []string `mapstructure:"config_set"`
	ConfigSetAppend      []string `mapstructure:"config_set_append"`
	Kind                 string   `mapstructure:"kind"`
	DefaultValue         any      `mapstructure:"default_value"`
	Multiple             bool     `mapstructure:"multiple"`
}

// Load parses one feature document. Every problem found is reported in a
// single SpecLoadError.
func Load(name string, doc []byte) (*FeatureSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, &SpecLoadError{Feature: name, Err: err}
	}
	if len(root.Content) == 0 {
		return nil, &SpecLoadError{Feature: name, Err: errors.New("empty document")}
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &SpecLoadError{Feature: name, Err: fmt.Errorf("line %d: document must be a mapping", top.Line)}
	}

	spec := &FeatureSpec{
		Name:       name,
		properties: make(map[string]*Property),
	}
	v := &util.ValidationBuilder{}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		switch {
		case key.Value == templateKey:
			l, err := decodeLayer(val)
			if err != nil {
				v.AddErrorf("%s: %v", templateKey, err)
				continue
			}
			spec.Template = l
		case key.Value == excludeKey:
			pats, err := decodePatterns(val)
			if err != nil {
				v.AddErrorf("%s: %v", excludeKey, err)
				continue
			}
			spec.Exclude = pats
		case strings.HasPrefix(key.Value, "_"):
			v.AddErrorf("line %d: unknown reserved key %q", key.Line, key.Value)
		default:
			if _, dup := spec.properties[key.Value]; dup {
				v.AddErrorf("line %d: duplicate property %q", key.Line, key.Value)
				continue
			}
			prop, err := decodeProperty(key.Value, val)
			if err != nil {
				v.AddError(err.Error())
				continue
			}
			spec.properties[prop.Name] = prop
			spec.order = append(spec.order, prop.Name)
		}
	}

	for _, pname := range spec.order {
		if err := checkComposedDefaults(spec.Template, spec.properties[pname]); err != nil {
			v.AddError(err.Error())
		}
	}

	if err := v.Build(); err != nil {
		return nil, &SpecLoadError{Feature: name, Err: err}
	}
	util.WithField("feature", name).Debugf("loaded %d properties", len(spec.order))
	return spec, nil
}

func decodeProperty(name string, node *yaml.Node) (*Property, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s (line %d): property must be a mapping", name, node.Line)
	}

	prop := &Property{Name: name}
	base := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seenVariant := make(map[string]bool)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch {
		case key.Value == excludeKey:
			pats, err := decodePatterns(val)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, excludeKey, err)
			}
			prop.Exclude = pats
		case isRegexKey(key.Value):
			if seenVariant[key.Value] {
				return nil, fmt.Errorf("%s (line %d): duplicate platform variant %s", name, key.Line, key.Value)
			}
			seenVariant[key.Value] = true
			pat, err := compileToken(key.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			l, err := decodeLayer(val)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", name, key.Value, err)
			}
			prop.Variants = append(prop.Variants, PlatformVariant{Pattern: pat, Layer: l})
		default:
			base.Content = append(base.Content, key, val)
		}
	}

	l, err := decodeLayer(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	prop.Base = l
	return prop, nil
}

// decodeLayer decodes a field block. Unknown field names are rejected.
func decodeLayer(node *yaml.Node) (Layer, error) {
	var l Layer
	if node.Kind != yaml.MappingNode {
		return l, fmt.Errorf("line %d: expected a mapping of fields", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if isRegexKey(node.Content[i].Value) {
			return l, fmt.Errorf("line %d: platform variant %s not allowed here", node.Content[i].Line, node.Content[i].Value)
		}
	}

	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return l, err
	}

	var raw rawLayer
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		Metadata:         &md,
		ErrorUnused:      true,
		ZeroFields:       true, // records explicit nulls (default_value: ~) in md.Keys
		WeaklyTypedInput: true,
	})
	if err != nil {
		return l, err
	}
	if err := dec.Decode(fields); err != nil {
		return l, err
	}

	declared := make(map[string]bool, len(md.Keys))
	for _, k := range md.Keys {
		declared[k] = true
	}

	if declared["config_get"] {
		l.QueryCommand = Some(raw.ConfigGet)
	}
	if declared["config_get_token"] {
		if err := validateTokens(raw.ConfigGetToken); err != nil {
			return l, err
		}
		l.QueryPattern = Some(raw.ConfigGetToken)
	}
	if declared["config_get_token_append"] {
		if err := validateTokens(raw.ConfigGetTokenAppend); err != nil {
			return l, err
		}
		l.QueryPatternAppend = Some(raw.ConfigGetTokenAppend)
	}
	if declared["config_set"] {
		l.SetCommands = Some(raw.ConfigSet)
	}
	if declared["config_set_append"] {
		l.SetCommandsAppend = Some(raw.ConfigSetAppend)
	}
	if declared["multiple"] {
		l.Multiple = Some(raw.Multiple)
	}
	if declared["kind"] {
		k, err := ParseKind(raw.Kind)
		if err != nil {
			return l, err
		}
		l.Kind = Some(k)
	}
	if declared["default_value"] {
		if raw.DefaultValue == nil {
			l.Default = Some(None)
		} else {
			l.Default = Some(ValueOf(raw.DefaultValue))
		}
	}
	if k, ok := l.Kind.Get(); ok {
		if def, ok := l.Default.Get(); ok {
			if err := checkDefault(k, def); err != nil {
				return l, err
			}
		}
	}
	return l, nil
}

func decodePatterns(node *yaml.Node) ([]*Pattern, error) {
	var texts []string
	switch node.Kind {
	case yaml.ScalarNode:
		texts = []string{node.Value}
	case yaml.SequenceNode:
		if err := node.Decode(&texts); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("line %d: expected a pattern or list of patterns", node.Line)
	}
	pats := make([]*Pattern, 0, len(texts))
	for _, t := range texts {
		p, err := compileToken(t)
		if err != nil {
			return nil, err
		}
		pats = append(pats, p)
	}
	return pats, nil
}

func validateTokens(tokens []string) error {
	for _, t := range tokens {
		if _, err := compileToken(t); err != nil {
			return err
		}
	}
	return nil
}

// checkComposedDefaults checks the default against the kind after the
// template, the property base and each variant are composed, so a kind
// and a default declared in different layers still agree.
func checkComposedDefaults(tmpl Layer, prop *Property) error {
	base := Layer{}.overlay(tmpl).overlay(prop.Base)
	if err := checkLayerDefault(base); err != nil {
		return fmt.Errorf("%s: %w", prop.Name, err)
	}
	for _, variant := range prop.Variants {
		if err := checkLayerDefault(base.overlay(variant.Layer)); err != nil {
			return fmt.Errorf("%s %s: %w", prop.Name, variant.Pattern, err)
		}
	}
	return nil
}

func checkLayerDefault(l Layer) error {
	k, ok := l.Kind.Get()
	if !ok {
		return nil
	}
	def, ok := l.Default.Get()
	if !ok {
		return nil
	}
	return checkDefault(k, def)
}

// checkDefault verifies a declared default can be coerced to the kind.
// List defaults are checked element-wise (tuples, multi-valued).
func checkDefault(k Kind, def Value) error {
	v, ok := def.Get()
	if !ok {
		return nil
	}
	if list, ok := v.([]any); ok {
		for _, e := range list {
			if _, err := coerce(elemKind(k), e); err != nil {
				return fmt.Errorf("default_value %v: %w", v, err)
			}
		}
		return nil
	}
	if _, err := coerce(k, v); err != nil {
		return fmt.Errorf("default_value %v: %w", v, err)
	}
	return nil
}

func elemKind(k Kind) Kind {
	if k == KindStringArray {
		return KindString
	}
	return k
}

// coerce converts document or captured text to the kind's Go type.
func coerce(k Kind, v any) (any, error) {
	switch k {
	case KindBoolean:
		return cast.ToBoolE(v)
	case KindInt:
		// Decimal only: "0100" is 100, not octal.
		if s, ok := v.(string); ok {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("unable to cast %q of type string to int", s)
			}
			return n, nil
		}
		return cast.ToIntE(v)
	default:
		return cast.ToStringE(v)
	}
}
