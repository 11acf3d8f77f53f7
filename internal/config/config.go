// Package config handles configuration loading and management for Surveyor.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Surveyor.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	Research  ResearchConfig  `mapstructure:"research"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseBedrock routes requests through AWS Bedrock instead of the
	// Anthropic API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// WebSearchConfig holds live web search backend settings.
type WebSearchConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	// ResultsPath is the gjson path to the results array in the
	// backend's response.
	ResultsPath string `mapstructure:"results_path"`
}

// ResearchConfig holds run behavior settings.
type ResearchConfig struct {
	// DataDir is the root directory for run artifacts.
	DataDir string `mapstructure:"data_dir"`
	// WorkerTimeout is the per-worker deadline.
	WorkerTimeout time.Duration `mapstructure:"worker_timeout"`
	// MaxDeepenRounds bounds each worker's deepening loop.
	MaxDeepenRounds int `mapstructure:"max_deepen_rounds"`
	// RetryAttempts is the total capability call attempts, including the first.
	RetryAttempts int `mapstructure:"retry_attempts"`
	// RetryDelay is the pause between capability call attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// CacheSize is the per-tool LRU result cache size.
	CacheSize int `mapstructure:"cache_size"`
	// RoutingFile is an optional YAML file overriding signal routing.
	RoutingFile string `mapstructure:"routing_file"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SURVEYOR_SEARCH_API_KEY)
// 2. Project config (.surveyor.yaml in current directory or parent)
// 3. User config (~/.config/surveyor/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over the user config
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("web_search.api_key", "SURVEYOR_SEARCH_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.WebSearch.APIKey = expandEnv(cfg.WebSearch.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.WebSearch.APIKey = expandEnv(cfg.WebSearch.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("web_search.endpoint", cfg.WebSearch.Endpoint)
	v.Set("web_search.api_key", cfg.WebSearch.APIKey)
	v.Set("web_search.results_path", cfg.WebSearch.ResultsPath)
	v.Set("research.data_dir", cfg.Research.DataDir)
	v.Set("research.worker_timeout", cfg.Research.WorkerTimeout.String())
	v.Set("research.max_deepen_rounds", cfg.Research.MaxDeepenRounds)
	v.Set("research.retry_attempts", cfg.Research.RetryAttempts)
	v.Set("research.retry_delay", cfg.Research.RetryDelay.String())
	v.Set("research.cache_size", cfg.Research.CacheSize)
	v.Set("research.routing_file", cfg.Research.RoutingFile)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	// Web search defaults
	v.SetDefault("web_search.endpoint", "")
	v.SetDefault("web_search.api_key", "")
	v.SetDefault("web_search.results_path", "results")

	// Research defaults
	v.SetDefault("research.data_dir", "")
	v.SetDefault("research.worker_timeout", "2m")
	v.SetDefault("research.max_deepen_rounds", 3)
	v.SetDefault("research.retry_attempts", 3)
	v.SetDefault("research.retry_delay", "500ms")
	v.SetDefault("research.cache_size", 128)
	v.SetDefault("research.routing_file", "")

	// TUI defaults
	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for Surveyor.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "surveyor")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "surveyor")
	}
	return filepath.Join(home, ".config", "surveyor")
}

// findProjectConfig searches for .surveyor.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".surveyor.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-5",
		},
		WebSearch: WebSearchConfig{
			ResultsPath: "results",
		},
		Research: ResearchConfig{
			WorkerTimeout:   2 * time.Minute,
			MaxDeepenRounds: 3,
			RetryAttempts:   3,
			RetryDelay:      500 * time.Millisecond,
			CacheSize:       128,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
