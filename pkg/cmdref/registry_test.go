package cmdref

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/newtron-network/cmdref/pkg/util"
)

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"vpc.yaml":  "feature:\n  config_set: 'feature vpc'\n",
		"bgp.yml":   "feature:\n  config_set: 'feature bgp'\n",
		"notes.txt": "not a feature",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	r := NewRegistry()
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if got := r.Features(); !reflect.DeepEqual(got, []string{"bgp", "vpc"}) {
		t.Errorf("Features() = %v, want [bgp vpc]", got)
	}

	rule, err := r.Resolve("vpc", "feature", "N7K-C7010")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(rule.SetCommands, []string{"feature vpc"}) {
		t.Errorf("SetCommands = %v", rule.SetCommands)
	}
}

func TestRegistry_LoadDirError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("p:\n  nope: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := NewRegistry().LoadDir(dir)
	var loadErr *SpecLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error = %v, want *SpecLoadError", err)
	}
	if loadErr.Feature != "bad" {
		t.Errorf("Feature = %q, want bad", loadErr.Feature)
	}

	if err := NewRegistry().LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("LoadDir() on a missing dir should fail")
	}
}

func TestRegistry_LoadFSAndOverride(t *testing.T) {
	fsys := fstest.MapFS{
		"specs/vni.yaml": {Data: []byte("feature:\n  config_set: 'feature vni'\n")},
	}

	r := NewRegistry()
	if err := r.LoadFS(fsys, "specs"); err != nil {
		t.Fatalf("LoadFS() error: %v", err)
	}
	if _, err := r.Load("vni", []byte("feature:\n  config_set: 'feature nv overlay'\n")); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	rule, err := r.Resolve("vni", "feature", "N9K")
	if err != nil {
		t.Fatal(err)
	}
	if rule.SetCommands[0] != "feature nv overlay" {
		t.Errorf("SetCommands = %v, want the later document", rule.SetCommands)
	}
}

func TestRegistry_UnknownFeature(t *testing.T) {
	_, err := NewRegistry().Resolve("ospf", "feature", "N7K")
	var unk *UnknownFeatureError
	if !errors.As(err, &unk) {
		t.Fatalf("error = %v, want *UnknownFeatureError", err)
	}
	if !errors.Is(err, util.ErrNotFound) {
		t.Error("error should wrap ErrNotFound")
	}
}
