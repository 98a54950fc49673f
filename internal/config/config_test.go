package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "impactmap.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
include = ["src/**"]
exclude = ["src/generated/**"]

[[test_markers]]
language = "python"
name = "check_*"
kind = "custom"

[[test_markers]]
name = "spec_*"
file = "*_spec.py"
kind = "rspec-style"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Include) != 1 || cfg.Include[0] != "src/**" {
		t.Errorf("include = %v", cfg.Include)
	}
	if len(cfg.TestMarkers) != 2 {
		t.Fatalf("markers = %v", cfg.TestMarkers)
	}
	if cfg.TestMarkers[1].File != "*_spec.py" {
		t.Errorf("marker file = %q", cfg.TestMarkers[1].File)
	}

	t.Run("configured markers precede defaults", func(t *testing.T) {
		rules := cfg.MarkerRules()
		if len(rules) <= 2 {
			t.Fatalf("rules = %v, want configured plus defaults", rules)
		}
		if rules[0].NamePattern != "check_*" {
			t.Errorf("rules[0] = %v, want the configured marker first", rules[0])
		}
	})
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, `
includ = ["typo"]
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("err = %v, want unknown-keys error", err)
	}
}

func TestLoadInvalidMarker(t *testing.T) {
	for name, content := range map[string]string{
		"missing name": "[[test_markers]]\nkind = \"x\"\n",
		"missing kind": "[[test_markers]]\nname = \"test_*\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.MarkerRules()) == 0 {
		t.Error("defaults should include the built-in marker rules")
	}
}

func TestReplaceMarkers(t *testing.T) {
	path := writeConfig(t, `
replace_markers = true

[[test_markers]]
name = "only_*"
kind = "custom"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rules := cfg.MarkerRules()
	if len(rules) != 1 || rules[0].NamePattern != "only_*" {
		t.Errorf("rules = %v, want only the configured marker", rules)
	}
}
