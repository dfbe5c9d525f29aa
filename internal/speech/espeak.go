package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

type commandRunner func(ctx context.Context, stdin string, name string, args ...string) ([]byte, error)

// EspeakSynthesizer drives the espeak-ng command line engine and captures the
// WAV it writes to stdout.
type EspeakSynthesizer struct {
	binary string
	opts   Options
	run    commandRunner

	voiceMu       sync.Mutex
	voice         string
	voiceResolved bool
}

func NewEspeakSynthesizer(binary string, opts Options) *EspeakSynthesizer {
	if binary == "" {
		binary = "espeak-ng"
	}
	if opts.Rate <= 0 {
		opts.Rate = 150
	}
	if opts.Volume < 0 || opts.Volume > 2 {
		opts.Volume = 1
	}
	return &EspeakSynthesizer{binary: binary, opts: opts, run: execRunner}
}

func (s *EspeakSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	voice, err := s.resolveVoice(ctx)
	if err != nil {
		return nil, err
	}

	args := []string{
		"--stdout",
		"--stdin",
		"-s", strconv.Itoa(s.opts.Rate),
		"-a", strconv.Itoa(int(s.opts.Volume * 100)),
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}

	audio, err := s.run(ctx, text, s.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("espeak synthesis failed: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("espeak produced no audio")
	}
	return audio, nil
}

// resolveVoice maps the configured index onto the engine's voice list. Only a
// successful lookup is kept; failures are retried on the next call.
func (s *EspeakSynthesizer) resolveVoice(ctx context.Context) (string, error) {
	s.voiceMu.Lock()
	defer s.voiceMu.Unlock()
	if s.voiceResolved {
		return s.voice, nil
	}

	out, err := s.run(ctx, "", s.binary, "--voices")
	if err != nil {
		return "", fmt.Errorf("list espeak voices failed: %w", err)
	}
	voices := parseVoices(out)
	if len(voices) > 0 {
		if s.opts.VoiceIndex < 0 || s.opts.VoiceIndex >= len(voices) {
			return "", fmt.Errorf("voice index %d out of range (%d voices)", s.opts.VoiceIndex, len(voices))
		}
		s.voice = voices[s.opts.VoiceIndex]
	}
	s.voiceResolved = true
	return s.voice, nil
}

// parseVoices reads the language column of `espeak-ng --voices`.
func parseVoices(listing []byte) []string {
	var voices []string
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		voices = append(voices, fields[1])
	}
	return voices
}

func execRunner(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
