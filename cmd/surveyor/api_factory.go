package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/surveyorhq/surveyor/internal/config"
	"github.com/surveyorhq/surveyor/internal/source"
)

// buildRegistry constructs the source tool registry from configuration.
// The Claude-backed semantic tool serves the capabilities that need written
// knowledge (semantic-search, code-context, transcript-search); web-search
// goes to the configured HTTP backend when one exists and falls back to the
// semantic tool otherwise; url-fetch always gets the direct fetcher.
// Every tool is wrapped in an LRU result cache.
func buildRegistry(cfg *config.Config) (*source.Registry, error) {
	registry := source.NewRegistry()

	semanticCfg := source.SemanticConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}
	if !cfg.Anthropic.UseBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		semanticCfg.APIKey = key
	}

	claudeCapabilities := []string{
		source.CapabilitySemanticSearch,
		source.CapabilityCodeContext,
		source.CapabilityTranscript,
	}
	for _, capability := range claudeCapabilities {
		toolCfg := semanticCfg
		toolCfg.Capability = capability
		tool, err := source.NewSemanticTool(toolCfg)
		if err != nil {
			return nil, fmt.Errorf("create %s tool: %w", capability, err)
		}
		if err := registerCached(registry, tool, cfg.Research.CacheSize); err != nil {
			return nil, err
		}
	}

	if cfg.WebSearch.Endpoint != "" {
		webTool, err := source.NewWebSearchTool(source.WebSearchConfig{
			Endpoint:    cfg.WebSearch.Endpoint,
			APIKey:      config.GetSearchAPIKey(cfg),
			ResultsPath: cfg.WebSearch.ResultsPath,
		})
		if err != nil {
			return nil, fmt.Errorf("create web search tool: %w", err)
		}
		if err := registerCached(registry, webTool, cfg.Research.CacheSize); err != nil {
			return nil, err
		}
	} else {
		toolCfg := semanticCfg
		toolCfg.Capability = source.CapabilityWebSearch
		fallback, err := source.NewSemanticTool(toolCfg)
		if err != nil {
			return nil, fmt.Errorf("create web search fallback: %w", err)
		}
		if err := registerCached(registry, fallback, cfg.Research.CacheSize); err != nil {
			return nil, err
		}
	}

	// Fetches are not cached: a URL's content may change between runs and
	// the worker dedups sources itself.
	registry.Register(source.NewFetchTool(nil))

	return registry, nil
}

// registerCached wraps a tool in an LRU result cache and registers it.
func registerCached(registry *source.Registry, tool source.SourceTool, size int) error {
	cached, err := source.WithCache(tool, size)
	if err != nil {
		return fmt.Errorf("wrap %s in cache: %w", tool.Name(), err)
	}
	registry.Register(cached)
	return nil
}

// loadRouting returns the routing table, applying the configured override
// file when present.
func loadRouting(cfg *config.Config) (source.RoutingTable, error) {
	if cfg.Research.RoutingFile == "" {
		return source.DefaultRouting(), nil
	}
	return source.LoadRoutingTable(cfg.Research.RoutingFile)
}
