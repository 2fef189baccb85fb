package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps one JSON document per key under a base directory.
// A key such as "drafts/abc" maps to <base>/drafts/abc.json.
type FileStore[C any] struct {
	basePath string
	now      func() time.Time
}

type fileEnvelope[C any] struct {
	Value     C          `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewFileStore creates a FileStore rooted at basePath, creating the
// directory if needed.
func NewFileStore[C any](basePath string) (*FileStore[C], error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("store: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("store: create base directory: %w", err)
	}
	return &FileStore[C]{basePath: abs, now: time.Now}, nil
}

// path resolves key inside the base directory. Keys that would escape it are
// rejected.
func (s *FileStore[C]) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("store: empty key")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("store: invalid key %q", key)
	}
	return filepath.Join(s.basePath, clean+".json"), nil
}

// Load reads the document for key. Returns (nil, nil) if the file does not
// exist or the entry has expired.
func (s *FileStore[C]) Load(_ context.Context, key string) (*C, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %q: %w", key, err)
	}

	var env fileEnvelope[C]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("store: unmarshal %q: %w", key, err)
	}
	if env.ExpiresAt != nil && s.now().After(*env.ExpiresAt) {
		_ = os.Remove(p)
		return nil, nil
	}
	return &env.Value, nil
}

// Save writes val atomically via a temp file and rename.
func (s *FileStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return s.Delete(ctx, key)
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	env := fileEnvelope[C]{Value: *val}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		env.ExpiresAt = &exp
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck // already failing
		os.Remove(tmp.Name()) //nolint:errcheck // best effort
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // best effort
		return fmt.Errorf("store: close %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // best effort
		return fmt.Errorf("store: rename %q: %w", key, err)
	}
	return nil
}

// Delete removes the file for key. Returns nil if it does not exist.
func (s *FileStore[C]) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

var _ ContextStore[any] = (*FileStore[any])(nil)
