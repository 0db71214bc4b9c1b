package specs_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/newtron-network/cmdref/pkg/cmdref"
	"github.com/newtron-network/cmdref/pkg/cmdref/specs"
	"github.com/newtron-network/cmdref/pkg/util"
)

const (
	n7k = "N7K-C7010"
	n3k = "N3K-C3064PQ"
	n5k = "N5K-C5548UP"
	n9k = "N9K-C9396PX"
)

func registry(t *testing.T) *cmdref.Registry {
	t.Helper()
	r, err := specs.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return r
}

func TestBuiltinFeatures(t *testing.T) {
	want := []string{"bgp", "bridge_domain", "vdc", "vni", "vpc"}
	if got := registry(t).Features(); !reflect.DeepEqual(got, want) {
		t.Errorf("Features() = %v, want %v", got, want)
	}
}

// Every property of every feature resolves (or is excluded) on common
// platforms, and every declared template renders with placeholder args.
func TestBuiltinPropertiesResolve(t *testing.T) {
	r := registry(t)
	for _, name := range r.Features() {
		f, _ := r.Feature(name)
		for _, prop := range f.Properties() {
			for _, platform := range []string{n7k, n3k, n5k, n9k} {
				rule, err := f.Resolve(prop, platform)
				if errors.Is(err, util.ErrUnsupported) {
					continue
				}
				if err != nil {
					t.Errorf("%s.%s on %s: %v", name, prop, platform, err)
					continue
				}
				if !rule.Queryable() && !rule.Settable() {
					t.Errorf("%s.%s on %s: neither queryable nor settable", name, prop, platform)
				}
			}
		}
	}
}

func TestVNIFeature_N7K(t *testing.T) {
	rule, err := registry(t).Resolve("vni", "feature", n7k)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(rule.QueryCommand, []string{"show running | i ^feature"}) {
		t.Errorf("QueryCommand = %v", rule.QueryCommand)
	}
	if !reflect.DeepEqual(rule.SetCommands, []string{"feature vni"}) {
		t.Errorf("SetCommands = %v", rule.SetCommands)
	}
	enabled, err := cmdref.ExtractBool(rule, "feature bgp\nfeature vni\nfeature vpc\n")
	if err != nil || !enabled {
		t.Errorf("ExtractBool() = %v, %v, want true", enabled, err)
	}
}

func TestVNIFeature_N3KReplacesBase(t *testing.T) {
	rule, err := registry(t).Resolve("vni", "feature", n3k)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(rule.SetCommands, []string{"feature vn-segment-vlan-based"}) {
		t.Errorf("SetCommands = %v, want only the variant command", rule.SetCommands)
	}
	enabled, _ := cmdref.ExtractBool(rule, "feature vni\n")
	if enabled {
		t.Error("N3K feature should not match the base pattern")
	}
}

func TestVNIExcluded(t *testing.T) {
	_, err := registry(t).Resolve("vni", "feature", n5k)
	var excl *cmdref.PlatformExcludedError
	if !errors.As(err, &excl) {
		t.Fatalf("error = %v, want *PlatformExcludedError", err)
	}
}

func TestBridgeDomainActivate(t *testing.T) {
	rule, err := registry(t).Resolve("bridge_domain", "bridge_domain_activate", n7k)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	got, err := cmdref.Synthesize(rule, cmdref.Args{"state": "", "domain": 100})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	want := []string{"system bridge-domain add 100", "end"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Synthesize() = %q, want %q", got, want)
	}
}

func TestLimitResourceModuleType(t *testing.T) {
	r := registry(t)
	rule, err := r.Resolve("vdc", "limit_resource_module_type", n7k)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if rule.Default.Present() {
		t.Fatal("limit_resource_module_type must have no default")
	}
	want := []string{"terminal dont-ask", "vdc <vdc>", "<state> limit-resource module-type <modules>", "end"}
	if !reflect.DeepEqual(rule.SetCommands, want) {
		t.Errorf("SetCommands = %v, want %v", rule.SetCommands, want)
	}

	bound, err := rule.Bind(cmdref.Args{"vdc": "blue"})
	if err != nil {
		t.Fatal(err)
	}
	raw := "vdc switch id 1\n  limit-resource module-type m1\nvdc blue id 2\n  allocate interface Ethernet2/1\n"
	_, err = cmdref.Extract(bound, raw)
	if !errors.Is(err, util.ErrValueUnavailable) {
		t.Errorf("Extract() error = %v, want ErrValueUnavailable", err)
	}

	if _, err := r.Resolve("vdc", "limit_resource_module_type", n3k); !errors.Is(err, util.ErrUnsupported) {
		t.Errorf("vdc on N3K error = %v, want ErrUnsupported", err)
	}
}

func TestBGPTimers(t *testing.T) {
	rule, err := registry(t).Resolve("bgp", "timer_bgp_keepalive_hold", n9k)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	wantPat := []string{"/^router bgp <asnum>$/", `/^timers bgp (\d+)(?: (\d+))?$/`}
	if !reflect.DeepEqual(rule.QueryPattern, wantPat) {
		t.Errorf("QueryPattern = %v, want %v", rule.QueryPattern, wantPat)
	}

	bound, err := rule.Bind(cmdref.Args{"asnum": "65000"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := cmdref.Extract(bound, "router bgp 65000\n  timers bgp 10 30\n")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{10, 30}) {
		t.Errorf("Extract() = %v, want [10 30]", got)
	}

	cmds, err := cmdref.Synthesize(rule, cmdref.Args{"state": "no", "asnum": "65000"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"router bgp 65000", "no timers bgp", "end"}
	if !reflect.DeepEqual(cmds, want) {
		t.Errorf("Synthesize() = %q, want %q", cmds, want)
	}
}

func TestVPCAutoRecoveryDefaults(t *testing.T) {
	r := registry(t)
	tests := []struct {
		platform string
		want     bool
	}{
		{n7k, true},
		{n9k, true},
		{n3k, false},
		{n5k, false},
	}
	for _, tt := range tests {
		rule, err := r.Resolve("vpc", "auto_recovery", tt.platform)
		if err != nil {
			t.Fatalf("Resolve(%s) error: %v", tt.platform, err)
		}
		got, err := cmdref.ExtractBool(rule, "")
		if err != nil {
			t.Fatal(err)
		}
		def, _ := rule.Default.Get()
		if def != tt.want {
			t.Errorf("auto_recovery default on %s = %v, want %v", tt.platform, def, tt.want)
		}
		if got {
			t.Errorf("auto_recovery on %s extracted true from empty output", tt.platform)
		}
	}
}
