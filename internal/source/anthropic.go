package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// semanticSystemPrompt instructs the model to answer as a retrieval backend.
const semanticSystemPrompt = `You are a research retrieval backend. Given a query, return the most relevant findings you know of, one per line, in this exact pipe-separated format (no other text):

TITLE | URL | TYPE | SNIPPET

TYPE must be one of: primary_doc, code, article, transcript, forum, unknown.
Use "-" for URL when none exists. Return at most 8 lines.`

// SemanticConfig configures the anthropic-backed semantic search tool.
type SemanticConfig struct {
	// Capability is the capability name this tool serves. Defaults to
	// semantic-search.
	Capability string
	// Model is the Claude model to use.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock selects AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// SemanticTool answers conceptual queries through the Anthropic Messages
// API. It is a reference SourceTool; workers only see the interface.
type SemanticTool struct {
	name   string
	client anthropic.Client
	model  anthropic.Model
}

// NewSemanticTool creates a SemanticTool from configuration.
func NewSemanticTool(cfg SemanticConfig) (*SemanticTool, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	name := cfg.Capability
	if name == "" {
		name = CapabilitySemanticSearch
	}

	return &SemanticTool{
		name:   name,
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Name returns the capability name.
func (t *SemanticTool) Name() string {
	return t.name
}

// Search runs one retrieval query against the Messages API and parses the
// pipe-separated response lines into a result set.
func (t *SemanticTool) Search(ctx context.Context, query string) (*models.ResultSet, error) {
	resp, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: semanticSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
			text.WriteString("\n")
		}
	}

	return &models.ResultSet{
		Query:      query,
		Capability: t.name,
		Results:    parseResultLines(text.String()),
	}, nil
}

// parseResultLines parses "TITLE | URL | TYPE | SNIPPET" lines. Lines that
// don't fit the shape are skipped rather than failing the whole set.
func parseResultLines(text string) []models.Result {
	var results []models.Result
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) < 4 {
			continue
		}

		url := strings.TrimSpace(parts[1])
		if url == "-" {
			url = ""
		}
		srcType := models.SourceType(strings.TrimSpace(parts[2]))
		if srcType.AuthorityScore() == 0 && srcType != models.SourceUnknown {
			srcType = models.SourceUnknown
		}

		results = append(results, models.Result{
			Title:   strings.TrimSpace(parts[0]),
			URL:     url,
			Type:    srcType,
			Snippet: strings.TrimSpace(parts[3]),
		})
	}
	return results
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock
// inference profile format (us.anthropic.{model}-v1:0).
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}
