package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonathan/interview-insights/internal/types"
)

// FileStore keeps every record in one JSON array file. The whole file is
// rewritten on each append through a temp file and rename.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	records []types.ProcessedExperience
	ids     map[string]bool
}

// NewFileStore loads path, creating it as an empty array when missing.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, ids: make(map[string]bool)}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.records = []types.ProcessedExperience{}
		if err := s.save(s.records); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}
	if s.records == nil {
		s.records = []types.ProcessedExperience{}
	}
	for _, r := range s.records {
		s.ids[r.ID] = true
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Append(_ context.Context, record types.ProcessedExperience) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[record.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
	}

	next := append(s.records[:len(s.records):len(s.records)], record)
	if err := s.save(next); err != nil {
		return err
	}
	s.records = next
	s.ids[record.ID] = true
	return nil
}

func (s *FileStore) List(_ context.Context) ([]types.ProcessedExperience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.ProcessedExperience, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id string) (types.ProcessedExperience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return types.ProcessedExperience{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *FileStore) Close() error { return nil }

// save writes records next to the store file and renames it into place.
func (s *FileStore) save(records []types.ProcessedExperience) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal experiences: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
