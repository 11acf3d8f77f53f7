package config

import (
	"errors"
	"testing"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	key, err := GetAPIKey(nil)
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if key != "sk-ant-from-env" {
		t.Errorf("key = %q, want sk-ant-from-env", key)
	}
}

func TestGetAPIKeyFromConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &Config{}
	cfg.Anthropic.APIKey = "sk-ant-from-config"

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if key != "sk-ant-from-config" {
		t.Errorf("key = %q, want sk-ant-from-config", key)
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := GetAPIKey(&Config{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("GetAPIKey() error = %v, want ErrNoAPIKey", err)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "sk-ant-REDACTED", false},
		{"empty key", "", true},
		{"wrong prefix", "sk-openai-abcdefghijklmnop", true},
		{"too short", "sk-ant-x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "", "(not set)"},
		{"short", "sk-ant-short", "***"},
		{"long", "sk-ant-REDACTED", "sk-ant-...1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.want {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGetAPIKeySource(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	bedrockCfg := &Config{}
	bedrockCfg.Anthropic.UseBedrock = true
	if got := GetAPIKeySource(bedrockCfg); got != KeySourceBedrock {
		t.Errorf("source = %q, want %q", got, KeySourceBedrock)
	}

	if got := GetAPIKeySource(&Config{}); got != KeySourceNone {
		t.Errorf("source = %q, want %q", got, KeySourceNone)
	}

	cfgWithKey := &Config{}
	cfgWithKey.Anthropic.APIKey = "sk-ant-something"
	if got := GetAPIKeySource(cfgWithKey); got != KeySourceConfig {
		t.Errorf("source = %q, want %q", got, KeySourceConfig)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	if got := GetAPIKeySource(&Config{}); got != KeySourceEnv {
		t.Errorf("source = %q, want %q", got, KeySourceEnv)
	}
}

func TestGetSearchAPIKey(t *testing.T) {
	t.Setenv("SURVEYOR_SEARCH_API_KEY", "")

	cfg := &Config{}
	cfg.WebSearch.APIKey = "search-key"
	if got := GetSearchAPIKey(cfg); got != "search-key" {
		t.Errorf("key = %q, want search-key", got)
	}

	t.Setenv("SURVEYOR_SEARCH_API_KEY", "env-key")
	if got := GetSearchAPIKey(cfg); got != "env-key" {
		t.Errorf("key = %q, want env-key (env wins)", got)
	}
}
