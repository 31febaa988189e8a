package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file, surviving restarts the
// way the browser client survives page loads.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore constructs a store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Token returns the stored token, or empty when none is stored.
func (s *FileTokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetToken stores the token, creating parent directories as needed.
func (s *FileTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Clear removes the stored token.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// StaticToken is a TokenStore holding a fixed token, for tests and
// non-persistent hosts.
type StaticToken string

func (t StaticToken) Token() string               { return string(t) }
func (t StaticToken) SetToken(token string) error { return nil }
func (t StaticToken) Clear() error                { return nil }
