package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/surveyorhq/surveyor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Surveyor configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/surveyor/config.yaml
Project-specific overrides can be placed in .surveyor.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("web_search.endpoint: %s\n", cfg.WebSearch.Endpoint)
	fmt.Printf("web_search.api_key: %s\n", config.MaskAPIKey(cfg.WebSearch.APIKey))
	fmt.Printf("web_search.results_path: %s\n", cfg.WebSearch.ResultsPath)
	fmt.Printf("research.data_dir: %s\n", cfg.Research.DataDir)
	fmt.Printf("research.worker_timeout: %s\n", cfg.Research.WorkerTimeout)
	fmt.Printf("research.max_deepen_rounds: %d\n", cfg.Research.MaxDeepenRounds)
	fmt.Printf("research.retry_attempts: %d\n", cfg.Research.RetryAttempts)
	fmt.Printf("research.retry_delay: %s\n", cfg.Research.RetryDelay)
	fmt.Printf("research.cache_size: %d\n", cfg.Research.CacheSize)
	fmt.Printf("research.routing_file: %s\n", cfg.Research.RoutingFile)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "web_search.endpoint":
		return cfg.WebSearch.Endpoint, nil
	case "web_search.api_key":
		return config.MaskAPIKey(cfg.WebSearch.APIKey), nil
	case "web_search.results_path":
		return cfg.WebSearch.ResultsPath, nil
	case "research.data_dir":
		return cfg.Research.DataDir, nil
	case "research.worker_timeout":
		return cfg.Research.WorkerTimeout.String(), nil
	case "research.max_deepen_rounds":
		return strconv.Itoa(cfg.Research.MaxDeepenRounds), nil
	case "research.retry_attempts":
		return strconv.Itoa(cfg.Research.RetryAttempts), nil
	case "research.retry_delay":
		return cfg.Research.RetryDelay.String(), nil
	case "research.cache_size":
		return strconv.Itoa(cfg.Research.CacheSize), nil
	case "research.routing_file":
		return cfg.Research.RoutingFile, nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "web_search.endpoint":
		cfg.WebSearch.Endpoint = value
	case "web_search.api_key":
		cfg.WebSearch.APIKey = value
	case "web_search.results_path":
		cfg.WebSearch.ResultsPath = value
	case "research.data_dir":
		cfg.Research.DataDir = value
	case "research.worker_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for worker_timeout: %w", err)
		}
		cfg.Research.WorkerTimeout = d
	case "research.max_deepen_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_deepen_rounds: %w", err)
		}
		cfg.Research.MaxDeepenRounds = n
	case "research.retry_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for retry_attempts: %w", err)
		}
		cfg.Research.RetryAttempts = n
	case "research.retry_delay":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for retry_delay: %w", err)
		}
		cfg.Research.RetryDelay = d
	case "research.cache_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for cache_size: %w", err)
		}
		cfg.Research.CacheSize = n
	case "research.routing_file":
		cfg.Research.RoutingFile = value
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
