package metagen

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// NewGenerator builds the backend named by cfg.Provider. An empty provider
// picks Gemini when a Gemini key is present. It returns (nil, nil) when no
// backend is configured, which leaves generation disabled.
func NewGenerator(ctx context.Context, cfg ProviderConfig) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" && cfg.GeminiAPIKey != "" {
		provider = ProviderGemini
	}

	switch provider {
	case "":
		return nil, nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("metagen: provider %q requires GEMINI_API_KEY", provider)
		}
		return NewGeminiClient(GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}), nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("metagen: provider %q requires OPENAI_API_KEY or OPENAI_BASE_URL", provider)
		}
		return NewOpenAIClient(ctx, OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("metagen: unknown provider %q", cfg.Provider)
	}
}
