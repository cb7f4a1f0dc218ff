package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HashState maps definition IDs to the content hash they carried the last
// time they were processed to completion. Unchanged hashes let a rerun
// skip the definition entirely.
type HashState struct {
	mu     sync.Mutex
	path   string
	hashes map[string]string
}

type stateFile struct {
	Hashes    map[string]string `json:"hashes"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// LoadState reads the state file at path. A missing file yields an empty
// state; a corrupt file is an error so a rerun does not silently
// reprocess everything.
func LoadState(path string) (*HashState, error) {
	s := &HashState{path: path, hashes: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	if f.Hashes != nil {
		s.hashes = f.Hashes
	}
	return s, nil
}

// Get returns the recorded hash for a definition, if any.
func (s *HashState) Get(definitionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[definitionID]
	return h, ok
}

// Set records the hash a definition was processed at.
func (s *HashState) Set(definitionID, contentHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[definitionID] = contentHash
}

// Save writes the state atomically via a temp file rename.
func (s *HashState) Save() error {
	s.mu.Lock()
	f := stateFile{Hashes: s.hashes, UpdatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(f, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
