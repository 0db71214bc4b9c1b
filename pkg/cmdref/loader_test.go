package cmdref

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/newtron-network/cmdref/pkg/util"
)

const testDoc = `
_template:
  config_get: 'show running bgp'
  config_get_token: '/^router bgp <asnum>$/'

router_id:
  kind: string
  config_get_token_append: '/^router-id (\S+)$/'
  config_set: ['router bgp <asnum>', '<state> router-id <router_id>', 'end']
  default_value: ''

timers:
  kind: int
  config_get_token_append: '/^timers bgp (\d+) (\d+)$/'
  config_set: ['router bgp <asnum>', '<state> timers bgp[ <keepalive> <hold>]', 'end']
  default_value: [60, 180]

zeta:
  config_set: 'zeta'
  /N3/:
    config_set: 'zeta n3'
  /N/:
    config_set: 'zeta n'

alpha:
  kind: boolean
  config_get: 'show running | i alpha'
  config_get_token: '/^alpha$/'
  default_value: ~
`

func TestLoad(t *testing.T) {
	spec, err := Load("bgp", []byte(testDoc))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if spec.Name != "bgp" {
		t.Errorf("Name = %q, want %q", spec.Name, "bgp")
	}
	want := []string{"router_id", "timers", "zeta", "alpha"}
	if got := spec.Properties(); !reflect.DeepEqual(got, want) {
		t.Errorf("Properties() = %v, want %v", got, want)
	}
	if got, _ := spec.Template.QueryCommand.Get(); !reflect.DeepEqual(got, []string{"show running bgp"}) {
		t.Errorf("Template.QueryCommand = %v", got)
	}

	zeta, ok := spec.Property("zeta")
	if !ok {
		t.Fatal("Property(zeta) not found")
	}
	if len(zeta.Variants) != 2 {
		t.Fatalf("zeta variants = %d, want 2", len(zeta.Variants))
	}
	if zeta.Variants[0].Pattern.String() != "/N3/" || zeta.Variants[1].Pattern.String() != "/N/" {
		t.Errorf("variant order = %s, %s; want /N3/, /N/", zeta.Variants[0].Pattern, zeta.Variants[1].Pattern)
	}
}

func TestLoad_ScalarBecomesList(t *testing.T) {
	spec, err := Load("bgp", []byte(testDoc))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	zeta, _ := spec.Property("zeta")
	if got, _ := zeta.Base.SetCommands.Get(); !reflect.DeepEqual(got, []string{"zeta"}) {
		t.Errorf("SetCommands = %v, want [zeta]", got)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	spec, err := Load("bgp", []byte(testDoc))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// default_value: ~ is declared but holds nothing.
	alpha, _ := spec.Property("alpha")
	def, declared := alpha.Base.Default.Get()
	if !declared {
		t.Error("alpha default_value should be declared")
	}
	if def.Present() {
		t.Errorf("alpha default = %v, want none", def)
	}

	// '' is a real default, distinct from none.
	rid, _ := spec.Property("router_id")
	def, _ = rid.Base.Default.Get()
	if v, ok := def.Get(); !ok || v != "" {
		t.Errorf("router_id default = %v (%v), want empty string", v, ok)
	}

	// No default_value at all.
	zeta, _ := spec.Property("zeta")
	if zeta.Base.Default.IsSet() {
		t.Error("zeta default_value should not be declared")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown field",
			doc:  "p:\n  config_sett: 'x'\n",
			want: "config_sett",
		},
		{
			name: "bad kind",
			doc:  "p:\n  kind: float\n",
			want: "unknown kind",
		},
		{
			name: "bad regex token",
			doc:  "p:\n  config_get_token: '/^(x$/'\n",
			want: "invalid pattern",
		},
		{
			name: "bad variant key",
			doc:  "p:\n  /N(7/:\n    config_set: x\n",
			want: "invalid pattern",
		},
		{
			name: "unknown reserved key",
			doc:  "_include: [other]\n",
			want: "unknown reserved key",
		},
		{
			name: "duplicate variant",
			doc:  "p:\n  /N7/:\n    config_set: a\n  /N7/:\n    config_set: b\n",
			want: "duplicate platform variant",
		},
		{
			name: "default does not fit kind",
			doc:  "p:\n  kind: int\n  default_value: many\n",
			want: "default_value",
		},
		{
			name: "default does not fit template kind",
			doc:  "_template:\n  kind: int\np:\n  default_value: many\n",
			want: "p: default_value many",
		},
		{
			name: "template after property",
			doc:  "p:\n  default_value: many\n_template:\n  kind: int\n",
			want: "p: default_value many",
		},
		{
			name: "variant default does not fit base kind",
			doc:  "p:\n  kind: boolean\n  default_value: true\n  /N3/:\n    default_value: sometimes\n",
			want: "p /N3/: default_value sometimes",
		},
		{
			name: "variant inside template",
			doc:  "_template:\n  /N7/:\n    config_set: x\n",
			want: "not allowed",
		},
		{
			name: "property not a mapping",
			doc:  "p: 'show'\n",
			want: "must be a mapping",
		},
		{
			name: "document not a mapping",
			doc:  "- a\n- b\n",
			want: "must be a mapping",
		},
		{
			name: "empty document",
			doc:  "",
			want: "empty document",
		},
		{
			name: "yaml syntax",
			doc:  "p: [\n",
			want: "loading feature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("f", []byte(tt.doc))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var loadErr *SpecLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error type = %T, want *SpecLoadError", err)
			}
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Error("error should wrap ErrInvalidConfig")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad_ReportsAllErrors(t *testing.T) {
	doc := "a:\n  bogus: 1\nb:\n  kind: float\n"
	_, err := Load("f", []byte(doc))
	if err == nil {
		t.Fatal("Load() should fail")
	}
	var verr *util.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error should wrap *util.ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoad_Exclude(t *testing.T) {
	doc := "_exclude: [/N5/, /N6/]\np:\n  config_set: x\n  _exclude: /N3/\n"
	spec, err := Load("f", []byte(doc))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(spec.Exclude) != 2 {
		t.Errorf("feature exclude = %d patterns, want 2", len(spec.Exclude))
	}
	p, _ := spec.Property("p")
	if len(p.Exclude) != 1 || p.Exclude[0].String() != "/N3/" {
		t.Errorf("property exclude = %v, want [/N3/]", p.Exclude)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"boolean", KindBoolean},
		{"bool", KindBoolean},
		{"int", KindInt},
		{"Integer", KindInt},
		{"string", KindString},
		{"string_array", KindStringArray},
		{" array ", KindStringArray},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseKind("float"); err == nil {
		t.Error("ParseKind(float) should fail")
	}
}
