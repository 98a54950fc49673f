// Package config loads the analyzer's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"impactmap/internal/indexer"
)

// Config is the on-disk configuration. Zero value means defaults.
type Config struct {
	// Include restricts indexing to files matching these gitignore-style
	// patterns. Empty means every supported source file.
	Include []string `toml:"include"`

	// Exclude drops matching files on top of the built-in exclusions
	// (.git, node_modules, vendor and friends).
	Exclude []string `toml:"exclude"`

	// TestMarkers adds or overrides test-entry-point conventions.
	TestMarkers []TestMarker `toml:"test_markers"`

	// ReplaceMarkers drops the built-in conventions instead of
	// prepending to them.
	ReplaceMarkers bool `toml:"replace_markers"`
}

// TestMarker is one configured test convention.
type TestMarker struct {
	Language string `toml:"language"`
	Name     string `toml:"name"`
	File     string `toml:"file"`
	Kind     string `toml:"kind"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{}
}

// Load reads a TOML config file. Unknown keys are an error so a typo
// silently disabling a marker never goes unnoticed. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for _, m := range c.TestMarkers {
		if m.Name == "" {
			return errors.New("test_markers entry without a name pattern")
		}
		if m.Kind == "" {
			return fmt.Errorf("test marker %q without a kind", m.Name)
		}
	}
	return nil
}

// MarkerRules converts the config into the indexer's rule list.
// Configured markers run first so they can shadow the defaults.
func (c *Config) MarkerRules() []indexer.MarkerRule {
	rules := make([]indexer.MarkerRule, 0, len(c.TestMarkers))
	for _, m := range c.TestMarkers {
		rules = append(rules, indexer.MarkerRule{
			Language:    m.Language,
			NamePattern: m.Name,
			FilePattern: m.File,
			Kind:        m.Kind,
		})
	}
	if !c.ReplaceMarkers {
		rules = append(rules, indexer.DefaultMarkerRules()...)
	}
	return rules
}
