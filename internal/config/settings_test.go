package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	if err := ValidateSettings(DefaultSettings()); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}
}

func TestLoadSettingsAbsentFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "auri.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auri.toml")
	body := "[logging]\nlevel = \"debug\"\n\n[pager]\nlines_per_page = 40\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Logging.Level != "debug" || s.Logging.Format != "console" {
		t.Fatalf("unexpected logging settings: %+v", s.Logging)
	}
	if s.Pager.LinesPerPage != 40 || s.Executor.Shell != "/bin/bash" {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestLoadSettingsRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auri.toml")
	body := "[logging]\nlevel = \"loud\"\n\n[executor]\nshell = \"bash\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadSettings(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "CFG_SETTINGS_INVALID") || !strings.Contains(msg, "logging.level") || !strings.Contains(msg, "executor.shell") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadSettingsRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auri.toml")
	if err := os.WriteFile(path, []byte("[logging\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil || !strings.Contains(err.Error(), "CFG_SETTINGS_PARSE") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
