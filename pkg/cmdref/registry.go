package cmdref

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/newtron-network/cmdref/pkg/util"
)

// Registry holds the loaded features of a process.
//
// Load, LoadFile, LoadDir and LoadFS are meant to run once at startup;
// Feature and Resolve may then be called from any goroutine. Loading a
// feature name a second time replaces the earlier document, which is how
// a spec directory overrides the built-in documents.
type Registry struct {
	mu       sync.RWMutex
	features map[string]*FeatureSpec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{features: make(map[string]*FeatureSpec)}
}

// Load parses doc and registers it as feature name.
func (r *Registry) Load(name string, doc []byte) (*FeatureSpec, error) {
	spec, err := Load(name, doc)
	if err != nil {
		return nil, err
	}
	r.Add(spec)
	return spec, nil
}

// Add registers an already-loaded feature.
func (r *Registry) Add(spec *FeatureSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.features[spec.Name]; ok {
		util.WithField("feature", spec.Name).Debugf("replacing loaded feature")
	}
	r.features[spec.Name] = spec
}

// LoadFile loads one document; the feature name is the file name without
// its extension.
func (r *Registry) LoadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	_, err = r.Load(featureName(file), data)
	return err
}

// LoadDir loads every .yaml/.yml document in dir.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading spec dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !isSpecFile(e.Name()) {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadFS loads every .yaml/.yml document in dir of fsys.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading spec dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !isSpecFile(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if _, err := r.Load(featureName(e.Name()), data); err != nil {
			return err
		}
	}
	return nil
}

// Feature returns a loaded feature.
func (r *Registry) Feature(name string) (*FeatureSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.features[name]
	if !ok {
		return nil, &UnknownFeatureError{Feature: name}
	}
	return spec, nil
}

// Features returns the loaded feature names, sorted.
func (r *Registry) Features() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.features))
	for name := range r.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up feature and resolves property for platform.
func (r *Registry) Resolve(feature, property, platform string) (*ResolvedRule, error) {
	spec, err := r.Feature(feature)
	if err != nil {
		return nil, err
	}
	return spec.Resolve(property, platform)
}

func isSpecFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func featureName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
