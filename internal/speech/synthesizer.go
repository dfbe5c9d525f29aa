// Package speech turns reply text into audio bytes.
package speech

import (
	"context"
	"errors"
	"fmt"

	"avatar-chat/internal/config"
)

var ErrEmptyText = errors.New("nothing to synthesize")

// Synthesizer renders text to a complete audio file held in memory.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Options mirrors the knobs of a local speech engine.
type Options struct {
	Rate       int     // words per minute
	Volume     float64 // 0.0 to 1.0
	VoiceIndex int     // position in the engine's voice list
}

func NewSynthesizer(cfg config.SpeechConfig) (Synthesizer, error) {
	opts := Options{Rate: cfg.Rate, Volume: cfg.Volume, VoiceIndex: cfg.VoiceIndex}
	switch cfg.Provider {
	case "", "espeak":
		return NewEspeakSynthesizer(cfg.Binary, opts), nil
	case "openai":
		return NewOpenAISynthesizer(cfg), nil
	case "silent":
		return NewSilentSynthesizer(), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}
