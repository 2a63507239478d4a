// Package memory provides an in-process TableStore used by tests and by runs
// without a configured database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/infra/storage"
)

type Store struct {
	mu      sync.RWMutex
	rows    []domain.Employee
	backups map[string][]domain.Employee
}

func NewStore(seed []domain.Employee) *Store {
	s := &Store{backups: make(map[string][]domain.Employee)}
	s.rows = append(s.rows, seed...)
	return s
}

func (s *Store) Load(ctx context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]domain.Employee, len(s.rows))
	copy(snapshot, s.rows)
	return snapshot, nil
}

func (s *Store) Write(ctx context.Context, id int64, updates storage.FieldUpdates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			updates.Apply(&s.rows[i])
			return nil
		}
	}
	return fmt.Errorf("row %d: %w", id, storage.ErrRowNotFound)
}

func (s *Store) Backup(ctx context.Context) (*storage.BackupHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := &storage.BackupHandle{
		ID:        uuid.NewString(),
		Location:  "memory",
		CreatedAt: time.Now(),
	}
	snapshot := make([]domain.Employee, len(s.rows))
	copy(snapshot, s.rows)
	s.backups[handle.ID] = snapshot
	return handle, nil
}

func (s *Store) Restore(ctx context.Context, handle *storage.BackupHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.backups[handle.ID]
	if !ok {
		return storage.ErrBackupNotFound
	}
	s.rows = make([]domain.Employee, len(snapshot))
	copy(s.rows, snapshot)
	return nil
}

func (s *Store) ResetProcessed(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched int64
	for i := range s.rows {
		if s.rows[i].IsProcessed {
			s.rows[i].IsProcessed = false
			touched++
		}
	}
	return touched, nil
}

// DeleteRow removes a row, simulating a concurrent external edit that
// invalidates a snapshot id. Test helper.
func (s *Store) DeleteRow(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return
		}
	}
}
