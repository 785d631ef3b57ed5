// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/malgo-cli/malgo/constant"
	"github.com/malgo-cli/malgo/filesystem"
	"github.com/malgo-cli/malgo/where"
	"github.com/zalando/go-keyring"
)

// TokenStore persists a TokenSet between process runs. Implementations must
// treat an absent session as ErrNoToken rather than a failure, and must
// round-trip a TokenSet losslessly.
type TokenStore interface {
	Load() (*TokenSet, error)
	Save(*TokenSet) error
	Delete() error
}

// FileStore persists the TokenSet as a JSON file through the virtualized
// filesystem layer, which lets tests substitute an in-memory backend.
// Writes are atomic: the new content goes to a temporary sibling which is
// then renamed over the previous file, so a crash mid-write never leaves a
// half-written cache behind.
type FileStore struct {
	Path string

	// mu serializes access when multiple client instances share a cache path
	// within one process.
	mu sync.Mutex
}

// NewFileStore creates a file-backed store. An empty path selects the
// default location under the user configuration directory.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = where.Tokens()
	}
	return &FileStore{Path: path}
}

// Load reads and deserializes the cached TokenSet. A missing file or an
// incomplete token set yields ErrNoToken.
func (s *FileStore) Load() (*TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := filesystem.API().ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, &CacheError{Op: "load", Cause: err}
	}

	var token TokenSet
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, &CacheError{Op: "load", Cause: err}
	}

	if !token.Complete() {
		return nil, ErrNoToken
	}

	return &token, nil
}

// Save serializes the TokenSet and atomically replaces any previous cache
// content. The file is created owner-readable only: the tokens are bearer
// credentials.
func (s *FileStore) Save(token *TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(token)
	if err != nil {
		return &CacheError{Op: "save", Cause: err}
	}

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(s.Path), os.ModePerm); err != nil {
		return &CacheError{Op: "save", Cause: err}
	}

	tmp := s.Path + ".tmp"
	if err := fs.WriteFile(tmp, raw, 0o600); err != nil {
		return &CacheError{Op: "save", Cause: err}
	}

	if err := fs.Rename(tmp, s.Path); err != nil {
		_ = fs.Remove(tmp)
		return &CacheError{Op: "save", Cause: err}
	}

	return nil
}

// Delete removes the cache file. A missing file is not an error.
func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := filesystem.API().Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return &CacheError{Op: "delete", Cause: err}
	}
	return nil
}

// KeyringStore persists the TokenSet in the operating system's secret
// service (Keychain, libsecret, Credential Manager).
type KeyringStore struct {
	Service string
	User    string
}

// NewKeyringStore creates a keyring-backed store under the application's
// default service identifier.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: constant.Malgo, User: "mal-token"}
}

// Load retrieves and deserializes the TokenSet from the system keyring.
func (s *KeyringStore) Load() (*TokenSet, error) {
	raw, err := keyring.Get(s.Service, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoToken
		}
		return nil, &CacheError{Op: "load", Cause: err}
	}

	var token TokenSet
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, &CacheError{Op: "load", Cause: err}
	}

	if !token.Complete() {
		return nil, ErrNoToken
	}

	return &token, nil
}

// Save serializes and persists the TokenSet to the system keyring.
func (s *KeyringStore) Save(token *TokenSet) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return &CacheError{Op: "save", Cause: err}
	}

	if err := keyring.Set(s.Service, s.User, string(raw)); err != nil {
		return &CacheError{Op: "save", Cause: err}
	}
	return nil
}

// Delete removes the TokenSet from the system keyring.
func (s *KeyringStore) Delete() error {
	if err := keyring.Delete(s.Service, s.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &CacheError{Op: "delete", Cause: err}
	}
	return nil
}
