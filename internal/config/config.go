package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/PixPMusic/gopher-bind/internal/bank"
	"github.com/PixPMusic/gopher-bind/internal/lfo"
)

// KeyConfig holds keyboard adapter settings
type KeyConfig struct {
	HoldRampMS int `json:"hold_ramp_ms"` // time for a hold to reach full value
	TickMS     int `json:"tick_ms"`
}

// Config holds application configuration
type Config struct {
	InPorts       []string         `json:"in_ports"`     // MIDI inputs to listen on; empty means all
	CatalogPath   string           `json:"catalog_path"` // YAML parameter catalog
	LearnTimeoutS float64          `json:"learn_timeout_s,omitempty"`
	LFOs          []lfo.Oscillator `json:"lfos"`
	Keys          KeyConfig        `json:"keys"`
	Banks         bank.Snapshot    `json:"banks"`
}

// Default returns the config used when no file exists yet
func Default() *Config {
	return &Config{
		InPorts: []string{},
		LFOs:    []lfo.Oscillator{},
		Keys:    KeyConfig{HoldRampMS: 1000, TickMS: 20},
	}
}

// configDir returns the platform-appropriate config directory
func configDir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "gopher-bind"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, returning defaults if not found
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the config at path, returning defaults if not found
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Ensure slices are not nil
	if cfg.InPorts == nil {
		cfg.InPorts = []string{}
	}
	if cfg.LFOs == nil {
		cfg.LFOs = []lfo.Oscillator{}
	}

	return cfg, nil
}

// RemoveLFO drops the oscillator with key and reports whether it was there
func (c *Config) RemoveLFO(key string) bool {
	kept := c.LFOs[:0]
	for _, o := range c.LFOs {
		if o.Key != key {
			kept = append(kept, o)
		}
	}
	removed := len(kept) != len(c.LFOs)
	c.LFOs = kept
	return removed
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Rename(tmp, path)
}

// File persists bank changes into a config file
type File struct {
	mu   sync.Mutex
	path string
	cfg  *Config
}

// NewFile returns a persister that writes cfg to path
func NewFile(path string, cfg *Config) *File {
	return &File{path: path, cfg: cfg}
}

// Path returns the file being written
func (f *File) Path() string {
	return f.path
}

// SaveBanks stores snap in the config and writes the whole file
func (f *File) SaveBanks(snap bank.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg.Banks = snap
	return f.cfg.SaveTo(f.path)
}

// Update applies fn to the config and writes the whole file
func (f *File) Update(fn func(*Config)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.cfg)
	return f.cfg.SaveTo(f.path)
}

// InPorts returns a copy of the configured MIDI inputs
func (f *File) InPorts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.cfg.InPorts...)
}
