package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/quizdoc/internal/logger"
	"github.com/abhisek/quizdoc/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → retry → logging → base, so every attempt is recorded.
// events may be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	log.Debug("llm provider ready", "provider", cfg.Provider, "model", base.ModelID())

	p := WithLogging(base, cfg.Provider, events, log)
	p = WithRetryLogger(p, cfg.Retry, log)
	return WithTimeout(p, cfg.Timeout), nil
}
