package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Anthropic.Model != "claude-sonnet-4-5" {
		t.Errorf("expected default model 'claude-sonnet-4-5', got %q", cfg.Anthropic.Model)
	}

	if cfg.Anthropic.UseBedrock {
		t.Error("expected use_bedrock to default to false")
	}

	if cfg.WebSearch.ResultsPath != "results" {
		t.Errorf("expected results_path 'results', got %q", cfg.WebSearch.ResultsPath)
	}

	if cfg.Research.WorkerTimeout != 2*time.Minute {
		t.Errorf("expected worker timeout 2m, got %v", cfg.Research.WorkerTimeout)
	}

	if cfg.Research.MaxDeepenRounds != 3 {
		t.Errorf("expected max deepen rounds 3, got %d", cfg.Research.MaxDeepenRounds)
	}

	if cfg.Research.RetryAttempts != 3 {
		t.Errorf("expected retry attempts 3, got %d", cfg.Research.RetryAttempts)
	}

	if cfg.Research.RetryDelay != 500*time.Millisecond {
		t.Errorf("expected retry delay 500ms, got %v", cfg.Research.RetryDelay)
	}

	if cfg.Research.CacheSize != 128 {
		t.Errorf("expected cache size 128, got %d", cfg.Research.CacheSize)
	}

	if cfg.TUI.RefreshRate != 100*time.Millisecond {
		t.Errorf("expected refresh rate 100ms, got %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-haiku-4-5
web_search:
  endpoint: https://search.example.com/v1
  results_path: data.hits
research:
  worker_timeout: 5m
  max_deepen_rounds: 2
  cache_size: 64
tui:
  refresh_rate: 200ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("api_key = %q, want test-key", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.Model != "claude-haiku-4-5" {
		t.Errorf("model = %q, want claude-haiku-4-5", cfg.Anthropic.Model)
	}
	if cfg.WebSearch.Endpoint != "https://search.example.com/v1" {
		t.Errorf("endpoint = %q", cfg.WebSearch.Endpoint)
	}
	if cfg.WebSearch.ResultsPath != "data.hits" {
		t.Errorf("results_path = %q, want data.hits", cfg.WebSearch.ResultsPath)
	}
	if cfg.Research.WorkerTimeout != 5*time.Minute {
		t.Errorf("worker_timeout = %v, want 5m", cfg.Research.WorkerTimeout)
	}
	if cfg.Research.MaxDeepenRounds != 2 {
		t.Errorf("max_deepen_rounds = %d, want 2", cfg.Research.MaxDeepenRounds)
	}
	if cfg.Research.CacheSize != 64 {
		t.Errorf("cache_size = %d, want 64", cfg.Research.CacheSize)
	}
	if cfg.TUI.RefreshRate != 200*time.Millisecond {
		t.Errorf("refresh_rate = %v, want 200ms", cfg.TUI.RefreshRate)
	}

	// Values absent from the file keep their defaults
	if cfg.Research.RetryAttempts != 3 {
		t.Errorf("retry_attempts = %d, want default 3", cfg.Research.RetryAttempts)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestExpandEnvInAPIKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: ${TEST_SURVEYOR_KEY}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TEST_SURVEYOR_KEY", "sk-ant-expanded")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-expanded" {
		t.Errorf("api_key = %q, want expanded value", cfg.Anthropic.APIKey)
	}
}
