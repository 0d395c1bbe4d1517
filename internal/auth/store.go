package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	tokenDirName  = ".ticktick-mcp"
	tokenFileName = "tokens.json"
)

// Store persists a single token record as a JSON file at a fixed per-user
// location. Every update rewrites the file wholesale.
type Store struct {
	path string
}

// NewStore creates a store at the default per-user location
// (~/.ticktick-mcp/tokens.json).
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return &Store{path: filepath.Join(home, tokenDirName, tokenFileName)}, nil
}

// NewStoreAt creates a store backed by the given file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the record as pretty-printed JSON, creating the directory if
// needed. The directory is user-only (0700) and the file user-only (0600).
func (s *Store) Save(rec *TokenRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load returns the persisted record, or nil when the file is missing,
// malformed, or violates the record invariant. Absent credentials are a
// normal state, never an error.
func (s *Store) Load() *TokenRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if rec.AccessToken == "" {
		return nil
	}
	return &rec
}
