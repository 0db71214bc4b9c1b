// Package settings manages persistent user settings for the cmdref CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/newtron-network/cmdref/pkg/util"
)

// Transport names accepted by DefaultTransport.
const (
	TransportSSH     = "ssh"
	TransportScrapli = "scrapli"
	TransportSim     = "sim"
)

// Settings holds persistent user preferences
type Settings struct {
	// SpecDir holds feature documents that override the built-in ones
	SpecDir string `json:"spec_dir,omitempty"`

	// DefaultPlatform is the platform identifier used when -p is not specified
	DefaultPlatform string `json:"default_platform,omitempty"`

	// DefaultTransport is ssh, scrapli or sim
	DefaultTransport string `json:"default_transport,omitempty"`

	// ScrapliPlatform is the scrapligo driver name, e.g. cisco_nxos
	ScrapliPlatform string `json:"scrapli_platform,omitempty"`

	// Username for device logins
	Username string `json:"username,omitempty"`

	// RedisAddr, when set, backs the sim transport with Redis
	RedisAddr string `json:"redis_addr,omitempty"`

	// AuditLog is the audit log path
	AuditLog string `json:"audit_log,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cmdref_settings.json"
	}
	return filepath.Join(home, ".cmdref", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields
// empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerated fields.
func (s *Settings) Validate() error {
	v := &util.ValidationBuilder{}
	switch s.DefaultTransport {
	case "", TransportSSH, TransportScrapli, TransportSim:
	default:
		v.AddErrorf("default_transport %q: must be ssh, scrapli or sim", s.DefaultTransport)
	}
	if s.DefaultTransport == TransportScrapli && s.ScrapliPlatform == "" {
		v.AddError("default_transport scrapli requires scrapli_platform")
	}
	return v.Build()
}

// GetTransport returns the transport name (with fallback)
func (s *Settings) GetTransport() string {
	if s.DefaultTransport != "" {
		return s.DefaultTransport
	}
	return TransportSSH
}

// GetAuditLog returns the audit log path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "audit.log")
}

// fields maps setting keys to their storage.
func (s *Settings) fields() map[string]*string {
	return map[string]*string{
		"spec_dir":          &s.SpecDir,
		"default_platform":  &s.DefaultPlatform,
		"default_transport": &s.DefaultTransport,
		"scrapli_platform":  &s.ScrapliPlatform,
		"username":          &s.Username,
		"redis_addr":        &s.RedisAddr,
		"audit_log":         &s.AuditLog,
	}
}

// Keys returns the setting names, sorted.
func (s *Settings) Keys() []string {
	f := s.fields()
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a setting by its JSON name.
func (s *Settings) Get(key string) (string, error) {
	p, ok := s.fields()[key]
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, util.ErrNotFound)
	}
	return *p, nil
}

// Set updates a setting by its JSON name. An empty value clears it.
func (s *Settings) Set(key, value string) error {
	p, ok := s.fields()[key]
	if !ok {
		return fmt.Errorf("setting %q: %w", key, util.ErrNotFound)
	}
	*p = value
	return nil
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
