package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type LocalAudioStore struct {
	baseDir string
}

var _ AudioStore = (*LocalAudioStore)(nil)

func NewLocalAudioStore(dir string) (*LocalAudioStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create audio directory %s: %w", baseDir, err)
	}
	return &LocalAudioStore{baseDir: baseDir}, nil
}

// Put writes through a temp file and renames it into place, so readers see
// either the previous audio or the new one, never a partial file.
func (s *LocalAudioStore) Put(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.baseDir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s/%s: %w", s.baseDir, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s/%s: %w", s.baseDir, name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.baseDir, name)); err != nil {
		return fmt.Errorf("failed to move audio into %s/%s: %w", s.baseDir, name, err)
	}
	return nil
}

func (s *LocalAudioStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open %s/%s: %w", s.baseDir, name, err)
	}
	return f, nil
}
