package ai

import (
	"context"
	"fmt"

	"avatar-chat/internal/config"
)

// Generator produces a text completion for a list of prompt strings. Calls are
// made exactly once; callers see the provider error as is.
type Generator interface {
	Generate(ctx context.Context, prompts []string) (string, error)
}

func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiGenerator(cfg), nil
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
