package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"avatar-chat/internal/config"
)

var (
	ErrNotFound    = errors.New("audio file not found")
	ErrInvalidName = errors.New("invalid audio file name")
)

// AudioStore holds rendered audio files addressed by a flat file name.
// Writing an existing name replaces it.
type AudioStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

func NewAudioStore(ctx context.Context, cfg config.AudioConfig) (AudioStore, error) {
	switch cfg.Store {
	case "", "local":
		return NewLocalAudioStore(cfg.Dir)
	case "s3":
		return NewS3AudioStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown audio store %q", cfg.Store)
	}
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
