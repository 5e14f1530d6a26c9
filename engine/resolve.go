package engine

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/credentials"
	"github.com/driftline/agentcore/model"
	anthropicmodel "github.com/driftline/agentcore/model/anthropic"
	openaimodel "github.com/driftline/agentcore/model/openai"
)

// Supported model providers.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// defaultModels maps providers to the model id used when none is given.
var defaultModels = map[string]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-2.0-flash",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderAnthropic:  string(anthropic.ModelClaude3_5Sonnet20241022),
}

// defaultBaseURLs maps providers that run over the OpenAI-compatible surface
// to their endpoint. OpenAI and Anthropic use their SDK defaults.
var defaultBaseURLs = map[string]string{
	ProviderGemini:     "https://generativelanguage.googleapis.com/v1beta/openai/",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
}

// ModelConfig selects and configures the model backing a run.
type ModelConfig struct {
	// Provider is one of the Provider* constants. Blank means openai.
	Provider string

	// ModelID overrides the provider's default model.
	ModelID string

	// APIKey overrides environment-based credential resolution.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	Temperature     float64
	MaxOutputTokens int64
}

// ResolveModel turns a ModelConfig into a ready Model. Provider names are
// case-insensitive; an unknown provider or an unresolvable API key is a
// terminal configuration error.
func ResolveModel(cfg ModelConfig) (model.Model, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	modelID := strings.TrimSpace(cfg.ModelID)
	if modelID == "" {
		modelID = defaultModels[provider]
	}

	switch provider {
	case ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		apiKey, err := credentials.ResolveAPIKey(provider, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		baseURL := credentials.ResolveBaseURL(provider, cfg.BaseURL, defaultBaseURLs[provider])
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Provider = provider
			o.Model = modelID
			o.APIKey = apiKey
			o.BaseURL = baseURL
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxOutputTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxOutputTokens
			}
		}), nil
	case ProviderAnthropic:
		apiKey, err := credentials.ResolveAPIKey(provider, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		baseURL := credentials.ResolveBaseURL(provider, cfg.BaseURL, "")
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(modelID)
			o.APIKey = apiKey
			o.BaseURL = baseURL
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxOutputTokens > 0 {
				o.MaxTokens = cfg.MaxOutputTokens
			}
		}), nil
	default:
		return nil, core.NewConfigError("model resolution", "unknown provider %q", cfg.Provider)
	}
}
