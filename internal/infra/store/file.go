package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// FileStore persists all keys in a single JSON document.
// Every write rewrites the document through a temp file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]fileEntry
}

// NewFileStore opens (or creates) the JSON document at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]fileEntry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "failed to read store file")
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, errors.Wrap(err, "failed to parse store file")
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeFileValue(v)
}

// Set stores value under key and flushes the document.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = encodeFileValue(value)
	return s.flushLocked()
}

// Delete removes key and flushes the document.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

// Close is a no-op; every write is already on disk.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode store file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}

	tmp, err := os.CreateTemp(dir, ".vibeflow-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to replace store file")
	}
	return nil
}

// fileEntry is one value in the document. JSON values are embedded as-is
// so the document stays readable; anything else is stored base64 encoded.
type fileEntry struct {
	JSON  json.RawMessage `json:"json,omitempty"`
	Bytes []byte          `json:"bytes,omitempty"`
}

func encodeFileValue(value []byte) fileEntry {
	if len(value) > 0 && json.Valid(value) {
		return fileEntry{JSON: append(json.RawMessage(nil), value...)}
	}
	return fileEntry{Bytes: append([]byte{}, value...)}
}

func decodeFileValue(e fileEntry) ([]byte, error) {
	if e.JSON != nil {
		return append([]byte(nil), e.JSON...), nil
	}
	return append([]byte{}, e.Bytes...), nil
}
