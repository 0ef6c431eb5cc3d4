package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `api_keys:
  anthropic: file-key
reasoner:
  adapter: anthropic
  model: claude-sonnet-4-20250514
  temperature: 0.5
memory:
  path: /tmp/mem.json
project:
  name: demo
  language: Go
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AnthropicAPIKey != "file-key" {
		t.Fatalf("anthropic key = %q", cfg.AnthropicAPIKey)
	}
	if cfg.Reasoner.Adapter != "anthropic" || cfg.Reasoner.Temperature != 0.5 {
		t.Fatalf("reasoner = %+v", cfg.Reasoner)
	}
	if cfg.Memory.Path != "/tmp/mem.json" {
		t.Fatalf("memory path = %q", cfg.Memory.Path)
	}
	if cfg.Project.Name != "demo" {
		t.Fatalf("project = %+v", cfg.Project)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := `api_keys:
  openai: file-key
reasoner:
  adapter: openai
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("PROMPTDOCK_ADAPTER", "mock")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpenAIAPIKey != "env-key" {
		t.Fatalf("openai key = %q", cfg.OpenAIAPIKey)
	}
	if cfg.Reasoner.Adapter != "mock" {
		t.Fatalf("adapter = %q", cfg.Reasoner.Adapter)
	}
}

func TestDefaultsWithNoFile(t *testing.T) {
	for _, env := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY"} {
		t.Setenv(env, "")
	}

	dir := t.TempDir()
	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reasoner.Adapter != "mock" {
		t.Fatalf("default adapter = %q", cfg.Reasoner.Adapter)
	}
	if cfg.Reasoner.Temperature != 0 {
		t.Fatalf("temperature should stay unset, got %v", cfg.Reasoner.Temperature)
	}
	if cfg.Memory.Path != filepath.Join(dir, "memory.json") {
		t.Fatalf("default memory path = %q", cfg.Memory.Path)
	}
}

func TestHasAdapter(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "k"}
	if !cfg.HasAdapter("google") || cfg.HasAdapter("openai") {
		t.Fatalf("HasAdapter wrong: %+v", cfg)
	}
	if !cfg.HasAdapter("mock") {
		t.Fatal("mock should always be available")
	}
	if cfg.HasAdapter("unknown") {
		t.Fatal("unknown adapter should be unavailable")
	}
	if cfg.DefaultAdapter() != "google" {
		t.Fatalf("default = %q", cfg.DefaultAdapter())
	}
}
