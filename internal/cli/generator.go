package cli

import (
	"context"
	"fmt"

	"github.com/codefionn/loopdriver/internal/config"
	"github.com/codefionn/loopdriver/internal/llm"
)

// BuildGenerator creates the provider client for cfg, then applies the
// configured rate limits and reports call latency to obs. The credential is
// revealed only while the client is constructed.
func BuildGenerator(ctx context.Context, cfg *config.Config, obs llm.Observer) (llm.Generator, error) {
	if cfg.Credential.IsEmpty() {
		return nil, &config.ConfigurationError{Field: "credential", Message: "no provider credential configured"}
	}

	var base llm.Generator
	err := cfg.Credential.Reveal(func(key string) error {
		var err error
		switch cfg.Provider {
		case config.ProviderAnthropic:
			base, err = llm.NewAnthropicClient(key)
		case config.ProviderOpenAI:
			base, err = llm.NewOpenAIClient(key)
		case config.ProviderGoogle:
			base, err = llm.NewGoogleClient(ctx, key)
		default:
			err = &config.ConfigurationError{Field: "provider", Message: fmt.Sprintf("unsupported provider %q", cfg.Provider)}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return WrapGenerator(base, cfg, obs), nil
}

// WrapGenerator applies the rate limiter and observer decorators to base.
func WrapGenerator(base llm.Generator, cfg *config.Config, obs llm.Observer) llm.Generator {
	gen := llm.NewRateLimited(base, llm.RateLimitOptions{
		RequestsPerMinute: cfg.RequestsPerMinute,
		TokensPerMinute:   cfg.TokensPerMinute,
	})
	return llm.NewObserved(gen, obs)
}
