// Package credentials resolves API keys and base URLs for the supported model
// providers. Resolution order for keys: explicit per-call override, then the
// provider's default environment variables. A missing key is a terminal
// configuration error naming the provider.
package credentials

import (
	"os"
	"strings"

	"github.com/driftline/agentcore/core"
)

// DefaultEnvVars maps provider names to their default API key environment
// variables, checked in order.
var DefaultEnvVars = map[string][]string{
	"openai":     {"OPENAI_API_KEY", "OPENAI_TOKEN"},
	"gemini":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
}

// BaseURLEnvVars maps provider names to the environment variable overriding
// their base URL.
var BaseURLEnvVars = map[string]string{
	"openai":     "OPENAI_BASE_URL",
	"gemini":     "GEMINI_BASE_URL",
	"openrouter": "OPENROUTER_BASE_URL",
	"anthropic":  "ANTHROPIC_BASE_URL",
}

// ResolveAPIKey returns the API key for a provider. An explicit non-blank
// override always wins; otherwise the provider's default environment variables
// are consulted in order. When nothing is found a ConfigError naming the
// provider is returned; this condition is terminal and never retried.
func ResolveAPIKey(provider, explicit string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	for _, envVar := range DefaultEnvVars[provider] {
		if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
			return key, nil
		}
	}
	return "", core.NewConfigError("model resolution",
		"no API key configured for provider %q (set one of %v or pass an explicit key)",
		provider, DefaultEnvVars[provider])
}

// ResolveBaseURL returns the base URL for a provider: explicit override first,
// then the provider's environment variable, then fallback (empty fallback
// means the SDK default).
func ResolveBaseURL(provider, explicit, fallback string) string {
	if u := strings.TrimSpace(explicit); u != "" {
		return u
	}
	if envVar, ok := BaseURLEnvVars[provider]; ok {
		if u := strings.TrimSpace(os.Getenv(envVar)); u != "" {
			return u
		}
	}
	return fallback
}
