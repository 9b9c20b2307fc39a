// Package draftfile stores the editor's durable draft as a JSON file in the user config dir.
package draftfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/ohmylink/internal/model"
)

// FileName is the draft file name inside the config dir.
const FileName = "editor-draft.json"

const formatVersion = 1

type envelope struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Draft   model.Profile `json:"draft"`
}

// File persists a single draft at Path.
type File struct {
	Path string
	now  func() time.Time
}

// New returns a persister writing to path.
func New(path string) *File { return &File{Path: path, now: time.Now} }

// DefaultPath resolves $XDG_CONFIG_HOME/ohmylink/editor-draft.json, falling back to ~/.config.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), FileName)
}

// ConfigDir returns the editor's config directory.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ohmylink")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ohmylink")
}

// Read returns the stored draft, or nil if no file exists.
func (f *File) Read(_ context.Context) (*model.Profile, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("decode %s: unsupported version %d", f.Path, env.Version)
	}
	return &env.Draft, nil
}

// Write replaces the file atomically (temp file + rename).
func (f *File) Write(_ context.Context, p model.Profile) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(envelope{Version: formatVersion, SavedAt: f.now().UTC(), Draft: p}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".draft-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// Clear removes the file. A missing file is not an error.
func (f *File) Clear(_ context.Context) error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
