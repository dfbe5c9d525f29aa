package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"avatar-chat/internal/config"
)

// OpenAISynthesizer calls the /audio/speech endpoint and returns MP3 bytes.
type OpenAISynthesizer struct {
	client openai.Client
	model  string
	voice  string
}

func NewOpenAISynthesizer(cfg config.SpeechConfig) *OpenAISynthesizer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		voice:  cfg.Voice,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai speech response failed: %w", err)
	}
	return audio, nil
}
