package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Data is the persisted mapping. Values are kept raw so each owner decodes its own keys.
type Data map[string]json.RawMessage

// Store reads and writes the state file. A missing or unreadable file is treated as an
// empty mapping, never as a failure.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("State file %s does not exist, starting empty", s.path)
		} else {
			log.Warnf("Could not read state file %s, starting empty: %v", s.path, err)
		}
		return Data{}
	}

	var data Data
	if err := json.Unmarshal(content, &data); err != nil {
		log.Warnf("State file %s is corrupt, starting empty: %v", s.path, err)
		return Data{}
	}
	if data == nil {
		return Data{}
	}
	return data
}

// Save atomically replaces the state file with data.
func (s *Store) Save(data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Get decodes the value stored under key into v. It reports false when the key is absent
// or its value does not decode.
func (d Data) Get(key string, v any) bool {
	raw, ok := d[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Warnf("Ignoring state entry %q: %v", key, err)
		return false
	}
	return true
}

func (d Data) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state entry %q: %w", key, err)
	}
	d[key] = raw
	return nil
}
