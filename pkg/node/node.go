// Package node reads and writes feature properties on one device.
//
// A Node resolves rules for its platform, sends the synthesized commands
// through a device.Transport, and extracts values from query output.
// Updates are planned first (PlanSet, PlanApply) and then executed, so a
// caller can preview the commands before anything is sent.
package node

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/newtron-network/cmdref/pkg/audit"
	"github.com/newtron-network/cmdref/pkg/cmdref"
	"github.com/newtron-network/cmdref/pkg/device"
	"github.com/newtron-network/cmdref/pkg/util"
)

// FeatureProperty is the property that enables a feature.
const FeatureProperty = "feature"

// Node is a session with one device.
type Node struct {
	Name     string
	Platform string
	User     string

	registry  *cmdref.Registry
	transport device.Transport
	auditLog  audit.Logger
}

// New creates a node for the device name on platform.
func New(name, platform string, registry *cmdref.Registry, transport device.Transport) *Node {
	return &Node{
		Name:      name,
		Platform:  platform,
		registry:  registry,
		transport: transport,
	}
}

// SetAuditLogger sends events to l instead of the default audit logger.
func (n *Node) SetAuditLogger(l audit.Logger) {
	n.auditLog = l
}

// Close closes the transport.
func (n *Node) Close() error {
	return n.transport.Close()
}

// Rule resolves a property for the node's platform.
func (n *Node) Rule(feature, property string) (*cmdref.ResolvedRule, error) {
	return n.registry.Resolve(feature, property, n.Platform)
}

// Supports reports whether the property exists on the node's platform.
func (n *Node) Supports(feature, property string) bool {
	_, err := n.Rule(feature, property)
	return err == nil
}

// Default returns the property's default value on this platform.
func (n *Node) Default(feature, property string) (any, bool, error) {
	rule, err := n.Rule(feature, property)
	if err != nil {
		return nil, false, err
	}
	return ruleDefault(rule)
}

// Get queries the device and extracts the property's current value.
// Placeholders in the query commands and patterns are filled from args.
func (n *Node) Get(ctx context.Context, feature, property string, args cmdref.Args) (any, error) {
	rule, err := n.Rule(feature, property)
	if err != nil {
		return nil, err
	}
	return n.get(ctx, rule, args)
}

// GetOrDefault is Get, falling back to the default when the value is not
// configured or the device rejects the query (commonly because the
// feature is disabled).
func (n *Node) GetOrDefault(ctx context.Context, feature, property string, args cmdref.Args) (any, error) {
	rule, err := n.Rule(feature, property)
	if err != nil {
		return nil, err
	}
	v, err := n.get(ctx, rule, args)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, util.ErrCLIRejected) || errors.Is(err, util.ErrValueUnavailable) {
		if def, ok, derr := ruleDefault(rule); derr == nil && ok {
			return def, nil
		}
	}
	return nil, err
}

func (n *Node) get(ctx context.Context, rule *cmdref.ResolvedRule, args cmdref.Args) (any, error) {
	if !rule.Queryable() {
		return nil, fmt.Errorf("%s.%s cannot be queried on %s: %w", rule.Feature, rule.Property, n.Platform, util.ErrUnsupported)
	}
	bound, err := rule.Bind(args)
	if err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(bound.QueryCommand))
	for _, cmd := range bound.QueryCommand {
		out, err := n.transport.Query(ctx, cmd)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return cmdref.Extract(bound, strings.Join(outputs, "\n"))
}

// PlanSet synthesizes the property's set commands from args as given.
// The caller chooses polarity with args["state"].
func (n *Node) PlanSet(feature, property string, args cmdref.Args) (*Change, error) {
	rule, err := n.settableRule(feature, property)
	if err != nil {
		return nil, err
	}
	cmds, err := cmdref.Synthesize(rule, args)
	if err != nil {
		return nil, err
	}
	return &Change{
		Feature:  feature,
		Property: property,
		Op:       audit.EventTypeSet,
		Args:     args,
		Commands: cmds,
	}, nil
}

// PlanApply plans the commands that make the property equal want.
//
// The current value is read first; when it already equals want the
// change is empty. Booleans configure for true and negate for false. Other
// values negate when want equals the default, which resets the property,
// and configure otherwise. A nil want means the default: a boolean is
// configured or negated to match it, other values are negated. It is
// refused for properties without a default. When args has no entry named
// after the property, want is passed under that name.
func (n *Node) PlanApply(ctx context.Context, feature, property string, want any, args cmdref.Args) (*Change, error) {
	rule, err := n.settableRule(feature, property)
	if err != nil {
		return nil, err
	}
	wantN, err := rule.Normalize(want)
	if err != nil {
		return nil, err
	}
	def, hasDef, err := ruleDefault(rule)
	if err != nil {
		return nil, err
	}
	reset := wantN == nil
	if reset {
		if !hasDef {
			return nil, fmt.Errorf("%s.%s has no default value to reset to: %w", feature, property, util.ErrUnsupported)
		}
		wantN = def
	}

	c := &Change{Feature: feature, Property: property, Op: audit.EventTypeApply, Want: wantN}

	if rule.Queryable() {
		cur, err := n.get(ctx, rule, args)
		switch {
		case err == nil:
		case errors.Is(err, util.ErrValueUnavailable), errors.Is(err, util.ErrCLIRejected):
			cur = nil
		default:
			return nil, err
		}
		if cur == nil && hasDef {
			cur = def
		}
		c.Current = cur
		if reflect.DeepEqual(cur, wantN) {
			util.WithFeature(feature, property).Debugf("%s already %v", n.Name, cur)
			c.Args = args
			return c, nil
		}
	}

	state := ""
	switch {
	case rule.Kind == cmdref.KindBoolean:
		if wantN == false {
			state = cmdref.NegationKeyword
		}
		if reset {
			c.Op = audit.EventTypeReset
		}
	case reset, reflect.DeepEqual(wantN, def):
		state = cmdref.NegationKeyword
		c.Op = audit.EventTypeReset
	}

	c.Args = args.With(cmdref.StateArg, state)
	if _, ok := c.Args[property]; !ok && rule.Kind != cmdref.KindBoolean {
		if reset {
			c.Args[property] = nil
		} else {
			c.Args[property] = wantN
		}
	}
	c.Commands, err = cmdref.Synthesize(rule, c.Args)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Execute sends a planned change and records it in the audit log.
func (n *Node) Execute(ctx context.Context, c *Change) error {
	if c.IsEmpty() {
		return nil
	}
	start := time.Now()
	err := n.transport.Configure(ctx, c.Commands)

	event := audit.NewEvent(n.User, n.Name, c.Op, c.Feature, c.Property).
		WithPlatform(n.Platform).
		WithArgs(c.Args).
		WithCommands(c.Commands).
		WithExecuteMode(true).
		WithDuration(time.Since(start))
	if err != nil {
		event.WithError(err)
	} else {
		event.WithSuccess()
	}
	if lerr := n.logEvent(event); lerr != nil {
		util.WithDevice(n.Name).Warnf("audit: %v", lerr)
	}

	if err != nil {
		return fmt.Errorf("applying %s.%s on %s: %w", c.Feature, c.Property, n.Name, err)
	}
	util.WithDevice(n.Name).Infof("%s.%s: sent %d commands", c.Feature, c.Property, len(c.Commands))
	return nil
}

// Apply plans and executes in one step.
func (n *Node) Apply(ctx context.Context, feature, property string, want any, args cmdref.Args) (*Change, error) {
	c, err := n.PlanApply(ctx, feature, property, want, args)
	if err != nil {
		return nil, err
	}
	return c, n.Execute(ctx, c)
}

// FeatureEnabled reports whether a feature is enabled. Features without
// a "feature" property are always on.
func (n *Node) FeatureEnabled(ctx context.Context, feature string) (bool, error) {
	rule, err := n.Rule(feature, FeatureProperty)
	var unknown *cmdref.UnknownPropertyError
	if errors.As(err, &unknown) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	v, err := n.get(ctx, rule, nil)
	if err != nil {
		return false, err
	}
	enabled, _ := v.(bool)
	return enabled, nil
}

// EnableFeature turns a feature on if it is off. Features are never
// disabled through this package: disabling removes all of the feature's
// configuration on most platforms.
func (n *Node) EnableFeature(ctx context.Context, feature string) (*Change, error) {
	c, err := n.Apply(ctx, feature, FeatureProperty, true, nil)
	var unknown *cmdref.UnknownPropertyError
	if errors.As(err, &unknown) {
		return &Change{Feature: feature, Property: FeatureProperty}, nil
	}
	return c, err
}

func (n *Node) settableRule(feature, property string) (*cmdref.ResolvedRule, error) {
	rule, err := n.Rule(feature, property)
	if err != nil {
		return nil, err
	}
	if !rule.Settable() {
		return nil, fmt.Errorf("%s.%s cannot be set on %s: %w", feature, property, n.Platform, util.ErrUnsupported)
	}
	return rule, nil
}

func (n *Node) logEvent(e *audit.Event) error {
	if n.auditLog != nil {
		return n.auditLog.Log(e)
	}
	return audit.Log(e)
}

func ruleDefault(rule *cmdref.ResolvedRule) (any, bool, error) {
	def, ok := rule.Default.Get()
	if !ok {
		return nil, false, nil
	}
	v, err := rule.Normalize(def)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
