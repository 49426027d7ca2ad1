// Package checkpoint persists backfill progress as one JSON file per
// job. Writes are atomic (temp file, fsync, rename) so a crash mid-save
// leaves the previous checkpoint intact, and progress is monotonic: a
// save that would move a job's last completed chunk backwards fails
// with ErrChunkRegression.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ChunkLabel formats a chunk's start month. Labels sort
// lexicographically in chronological order.
const ChunkLabel = "2006-01"

// ErrChunkRegression reports a save whose last completed chunk is
// behind the one already on disk. Two backfills racing each other is
// the only way to get here, so the caller should abort rather than
// carry on.
var ErrChunkRegression = errors.New("checkpoint would move backwards")

// Checkpoint is one job's persisted progress.
type Checkpoint struct {
	Job                string    `json:"job"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	LastCompletedChunk string    `json:"last_completed_chunk"`
	LastChunkEndDate   time.Time `json:"last_chunk_end_date"`
	ChunksCompleted    int       `json:"chunks_completed"`
	TotalChunks        int       `json:"total_chunks"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Store reads and writes checkpoints under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates the checkpoint directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(job string) string {
	return filepath.Join(s.dir, job+".json")
}

// Load returns a job's checkpoint, or nil when none exists.
func (s *Store) Load(job string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(job))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Save persists a checkpoint atomically. A save whose last completed
// chunk is behind the one on disk fails with ErrChunkRegression and
// leaves the file untouched.
func (s *Store) Save(cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked(cp.Job)
	if err != nil {
		return err
	}
	if existing != nil && existing.LastCompletedChunk > cp.LastCompletedChunk {
		return fmt.Errorf("%w: %s is behind %s for job %s",
			ErrChunkRegression, cp.LastCompletedChunk, existing.LastCompletedChunk, cp.Job)
	}

	cp.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, cp.Job+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(cp.Job)); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Clear removes a job's checkpoint; clearing a missing one is a no-op.
func (s *Store) Clear(job string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(job))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) loadLocked(job string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path(job))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		// A torn or corrupt file counts as no checkpoint rather than
		// blocking the save that would repair it.
		return nil, nil
	}
	return &cp, nil
}
