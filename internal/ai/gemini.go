package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"avatar-chat/internal/config"
)

var ErrEmptyCompletion = errors.New("model returned no candidates")

// GeminiGenerator talks to the Generative Language REST API
// (models/{model}:generateContent).
type GeminiGenerator struct {
	client *resty.Client
	model  string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func NewGeminiGenerator(cfg config.LLMConfig) *GeminiGenerator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey)
	return &GeminiGenerator{client: client, model: cfg.Model}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompts []string) (string, error) {
	parts := make([]geminiPart, 0, len(prompts))
	for _, p := range prompts {
		parts = append(parts, geminiPart{Text: p})
	}

	var parsed geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(geminiRequest{Contents: []geminiContent{{Role: "user", Parts: parts}}}).
		SetResult(&parsed).
		Post("/models/" + g.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini response status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(parsed.Candidates) == 0 {
		if parsed.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyCompletion, parsed.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyCompletion
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
