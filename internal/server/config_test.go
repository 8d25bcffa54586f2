package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_defaults(t *testing.T) {
	v, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got := v.GetInt("server.port"); got != 8080 {
		t.Errorf("server.port = %d, want 8080", got)
	}
	if got := v.GetString("logging.format"); got != "json" {
		t.Errorf("logging.format = %q, want json", got)
	}
	if got := v.GetString("theme.default"); got != "neural-cosmic-dark" {
		t.Errorf("theme.default = %q", got)
	}
	if !v.GetBool("modules.watch.enabled") {
		t.Error("modules.watch.enabled should default to true")
	}
	if got := v.GetInt("modules.watch.consecutive_failures"); got != 3 {
		t.Errorf("modules.watch.consecutive_failures = %d, want 3", got)
	}
}

func TestLoadConfig_fromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtcc.yaml")
	content := []byte("server:\n  port: 9999\nbackend:\n  base_url: http://upstream:8081\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got := v.GetInt("server.port"); got != 9999 {
		t.Errorf("server.port = %d, want 9999", got)
	}
	if got := v.GetString("backend.base_url"); got != "http://upstream:8081" {
		t.Errorf("backend.base_url = %q", got)
	}
	// Unset keys still fall back to defaults.
	if got := v.GetString("logging.level"); got != "info" {
		t.Errorf("logging.level = %q, want info", got)
	}
}

func TestLoadConfig_missingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
