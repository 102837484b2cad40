package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APOLO_DATA_DIR", dir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("APOLO_JWT_SECRET", "")
	t.Setenv("APOLO_THEME", "")

	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Dir != dir {
		t.Errorf("Data.Dir = %q, expected %q", cfg.Data.Dir, dir)
	}
	if cfg.Data.Path != filepath.Join(dir, "apolo.db") {
		t.Errorf("Data.Path = %q, expected path inside data dir", cfg.Data.Path)
	}
	if cfg.Auth.InitTimeout() != 5*time.Second {
		t.Errorf("InitTimeout = %v, expected 5s", cfg.Auth.InitTimeout())
	}
	if cfg.Sync.Poll != "@every 30s" {
		t.Errorf("Sync.Poll = %q, expected %q", cfg.Sync.Poll, "@every 30s")
	}
	if !cfg.Sync.RefetchOnSuccess {
		t.Error("RefetchOnSuccess should default to true")
	}
	if cfg.Auth.JWTSecret != "" {
		t.Errorf("JWTSecret = %q, expected empty so a key is generated", cfg.Auth.JWTSecret)
	}
	if cfg.UI.Theme != "void" {
		t.Errorf("UI.Theme = %q, expected void", cfg.UI.Theme)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log:
  level: debug
ai:
  provider: openai
  model: gpt-4o-mini
sync:
  poll: "@every 1m"
  refetch_on_success: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APOLO_DATA_DIR", dir)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("APOLO_AI_MODEL", "gpt-4.1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, expected debug", cfg.Log.Level)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, expected openai", cfg.AI.Provider)
	}
	if cfg.AI.Model != "gpt-4.1" {
		t.Errorf("AI.Model = %q, env override should win", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("AI.APIKey = %q, expected key from OPENAI_API_KEY", cfg.AI.APIKey)
	}
	if cfg.Sync.RefetchOnSuccess {
		t.Error("RefetchOnSuccess should be false from file")
	}
	if cfg.Auth.SessionFile != filepath.Join(dir, "session.jwt") {
		t.Errorf("SessionFile = %q, expected default inside data dir", cfg.Auth.SessionFile)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APOLO_DATA_DIR", dir)

	cfg := DefaultConfig()
	cfg.AI.Provider = "ollama"
	path := filepath.Join(dir, "nested", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AI.Provider != "ollama" {
		t.Errorf("AI.Provider = %q, expected ollama", loaded.AI.Provider)
	}
}
