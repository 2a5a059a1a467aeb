package dedupstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// FileStore backs the Dedup Store with a local file, one job id per line.
// The full set is loaded into memory at construction and every Add appends
// to the file, so restarts pick up the prior run's state without a replay.
type FileStore struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// NewFileStore loads (or creates) the dedup file at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("op=dedupstore.file.new: %w", err)
	}

	seen := make(map[string]struct{})
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("op=dedupstore.file.new: %w", err)
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := scanner.Text(); id != "" {
			seen[id] = struct{}{}
		}
	}
	scanErr := scanner.Err()
	_ = f.Close()
	if scanErr != nil {
		return nil, fmt.Errorf("op=dedupstore.file.new: %w", scanErr)
	}

	return &FileStore{path: path, seen: seen}, nil
}

// Contains reports whether jobID has already been recorded as seen.
func (s *FileStore) Contains(_ domain.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[jobID]
	return ok, nil
}

// Add records jobID as seen, both in memory and appended to the backing
// file so the record survives a restart.
func (s *FileStore) Add(_ domain.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[jobID]; ok {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("op=dedupstore.file.add: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, jobID); err != nil {
		return fmt.Errorf("op=dedupstore.file.add: %w", err)
	}
	s.seen[jobID] = struct{}{}
	return nil
}
