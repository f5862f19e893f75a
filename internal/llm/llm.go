package llm

import (
	"fmt"
	"time"

	"github.com/salescope/salescope/configs"
)

// New builds the configured provider. Unknown provider names are an
// error rather than a silent mock fallback.
func New(cfg configs.LLMConfig) (Provider, error) {
	var provider Provider

	switch cfg.Provider {
	case "mock", "":
		provider = &MockProvider{}
	case "openai", "azure_openai":
		// Azure exposes an OpenAI-compatible surface behind a custom base URL.
		opts := []OpenAIOption{WithOpenAIModel(cfg.Model)}
		if cfg.OpenAIKey != "" {
			opts = append(opts, WithOpenAIAPIKey(cfg.OpenAIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.BaseURL))
		}
		provider = NewOpenAI(opts...)
	case "anthropic":
		opts := []AnthropicOption{WithAnthropicModel(cfg.Model)}
		if cfg.AnthropicKey != "" {
			opts = append(opts, WithAnthropicAPIKey(cfg.AnthropicKey))
		}
		provider = NewAnthropic(opts...)
	case "vllm_http":
		provider = NewVLLM(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	if cfg.RPS > 0 {
		provider = NewRateLimited(provider, cfg.RPS)
	}
	// Retry wraps the limiter so every attempt pays for a rate token.
	if cfg.MaxRetries > 0 {
		provider = NewRetry(provider, cfg.MaxRetries)
	}

	return provider, nil
}
