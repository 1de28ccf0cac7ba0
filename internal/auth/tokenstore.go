// Package auth implements per-provider credential resolution (spec §4.10):
// a strict precedence chain across CLI flag, environment variable,
// on-disk credential store, and interactive prompt, plus the on-disk
// token store itself.
//
// Grounded on phrazzld-thinktank's internal/apikey package (same
// resolver-with-logger shape, same "never log the actual key" discipline)
// and internal/config's XDG-path conventions for the on-disk store.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record is the single credential persisted by TokenStore.
type Record struct {
	Provider  string     `json:"provider"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// TokenStore reads and writes the single-record credential file at
// $HOME/.handover/credentials.json.
type TokenStore struct {
	path string
}

// NewTokenStore builds a TokenStore rooted at $HOME/.handover/credentials.json.
func NewTokenStore() (*TokenStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return &TokenStore{path: filepath.Join(home, ".handover", "credentials.json")}, nil
}

// NewTokenStoreAt builds a TokenStore at an explicit path, for tests.
func NewTokenStoreAt(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Read returns the stored record, or (nil, nil) if none exists. Malformed
// or unreadable content is treated as "no credential": the file is
// removed and (nil, nil) is returned, the same result as a missing file.
// No warning is logged, by Read or by Resolver.Resolve.
func (s *TokenStore) Read() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		_ = os.Remove(s.path)
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = os.Remove(s.path)
		return nil, nil
	}

	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now()) {
		return &rec, errSessionExpired
	}

	return &rec, nil
}

// errSessionExpired is a sentinel distinct from AuthError so callers can
// tell "expired" apart from "absent" while Read still returns the stale
// record for diagnostics.
var errSessionExpired = fmt.Errorf("credential expired")

// IsExpired reports whether err is the sentinel Read returns for an
// expired-but-present record.
func IsExpired(err error) bool { return err == errSessionExpired }

// Write persists rec, creating the parent directory if needed, and then
// explicitly chmods the file to 0600. The permission bit passed to the
// initial open is not sufficient on every platform when the file already
// exists, so mode is set again after the write completes.
func (s *TokenStore) Write(rec Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}

	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("setting credential file mode: %w", err)
	}

	return nil
}

// Clear removes the credential file, ignoring a not-exist error.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
