package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"avatar-chat/internal/config"
)

// OpenAIGenerator uses the Chat Completions API of any OpenAI-compatible
// endpoint. Gemini also exposes one under /v1beta/openai.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

func NewOpenAIGenerator(cfg config.LLMConfig) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompts []string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompts))
	for _, p := range prompts {
		messages = append(messages, openai.UserMessage(p))
	}

	res, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return res.Choices[0].Message.Content, nil
}
