package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prefix != DefaultPrefix {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, DefaultPrefix)
	}
	if len(cfg.Tags) != 2 || cfg.Tags[0] != "img" || cfg.Tags[1] != "video" {
		t.Errorf("Tags = %v, want [img video]", cfg.Tags)
	}
	if cfg.Addr() != "localhost:8080" {
		t.Errorf("Addr = %q, want localhost:8080", cfg.Addr())
	}
	if cfg.BatchTimeout() != DefaultTimeout {
		t.Errorf("BatchTimeout = %v, want %v", cfg.BatchTimeout(), DefaultTimeout)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"prefix": "x-", "server": {"port": 9000}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prefix != "x-" {
		t.Errorf("Prefix = %q, want x-", cfg.Prefix)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Addr() != "localhost:9000" {
		t.Errorf("Addr = %q, want localhost:9000", cfg.Addr())
	}
	if len(cfg.Tags) == 0 {
		t.Error("Tags not defaulted")
	}
}

func TestLoadParsesTimeout(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"timeout": "5s"}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BatchTimeout() != 5*time.Second {
		t.Errorf("BatchTimeout = %v, want 5s", cfg.BatchTimeout())
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)

	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"timeout": "fast"}`)

	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsPortOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"server": {"port": 70000}}`)

	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Prefix = "x-"
	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Prefix != "x-" {
		t.Errorf("Prefix = %q, want x-", loaded.Prefix)
	}
	if loaded.Path() != path {
		t.Errorf("Path = %q, want %q", loaded.Path(), path)
	}
}
