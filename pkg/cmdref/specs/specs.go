// Package specs embeds the built-in feature documents.
package specs

import (
	"embed"

	"github.com/newtron-network/cmdref/pkg/cmdref"
)

//go:embed *.yaml
var FS embed.FS

// Load registers every built-in feature into r.
func Load(r *cmdref.Registry) error {
	return r.LoadFS(FS, ".")
}

// NewRegistry returns a registry holding the built-in features.
func NewRegistry() (*cmdref.Registry, error) {
	r := cmdref.NewRegistry()
	if err := Load(r); err != nil {
		return nil, err
	}
	return r, nil
}
