// Package account persists API credentials for named sessions as a JSON
// file, one record per session label.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNotFound is returned when no credentials exist for a session name.
var ErrNotFound = errors.New("account: not found")

// Account holds the credentials and profile of one saved session.
type Account struct {
	SessionName string     `json:"-"`
	APIID       int        `json:"api_id"`
	APIHash     string     `json:"api_hash"`
	Phone       string     `json:"phone,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	Username    string     `json:"username,omitempty"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// Store reads and writes the credentials file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given credentials file path.
// The parent directory is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// load reads the whole credentials map. A missing file is an empty map.
func (s *Store) load() (map[string]Account, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Account{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account: read %s: %w", s.path, err)
	}

	var accounts map[string]Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("account: parse %s: %w", s.path, err)
	}
	if accounts == nil {
		accounts = map[string]Account{}
	}
	return accounts, nil
}

// save writes the whole credentials map back. 0600 — the file holds secrets.
func (s *Store) save(accounts map[string]Account) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("account: create directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("account: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("account: write %s: %w", s.path, err)
	}
	return nil
}

// Get returns the credentials saved under the given session name.
func (s *Store) Get(sessionName string) (Account, error) {
	accounts, err := s.load()
	if err != nil {
		return Account{}, err
	}
	acct, ok := accounts[sessionName]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrNotFound, sessionName)
	}
	acct.SessionName = sessionName
	return acct, nil
}

// Put inserts or replaces the credentials for acct.SessionName.
func (s *Store) Put(acct Account) error {
	if acct.SessionName == "" {
		return errors.New("account: session name is required")
	}
	accounts, err := s.load()
	if err != nil {
		return err
	}
	accounts[acct.SessionName] = acct
	return s.save(accounts)
}

// Delete removes the credentials for the given session name.
// Deleting a name that does not exist returns ErrNotFound.
func (s *Store) Delete(sessionName string) error {
	accounts, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := accounts[sessionName]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionName)
	}
	delete(accounts, sessionName)
	return s.save(accounts)
}

// List returns all saved accounts, most recently used first.
func (s *Store) List() ([]Account, error) {
	accounts, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(accounts))
	for name, acct := range accounts {
		acct.SessionName = name
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := time.Time{}, time.Time{}
		if out[i].LastUsed != nil {
			ti = *out[i].LastUsed
		}
		if out[j].LastUsed != nil {
			tj = *out[j].LastUsed
		}
		if ti.Equal(tj) {
			return out[i].SessionName < out[j].SessionName
		}
		return ti.After(tj)
	})
	return out, nil
}

// Touch updates the last-used timestamp for a session.
func (s *Store) Touch(sessionName string, when time.Time) error {
	accounts, err := s.load()
	if err != nil {
		return err
	}
	acct, ok := accounts[sessionName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionName)
	}
	acct.LastUsed = &when
	accounts[sessionName] = acct
	return s.save(accounts)
}
