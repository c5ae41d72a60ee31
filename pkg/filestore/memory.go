package filestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps uploads in a map. It backs tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string][]byte),
	}
}

func (s *MemoryStore) Upload(ctx context.Context, data []byte, name string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	storageID := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.files[storageID] = buf

	return fmt.Sprintf("memory://%s/%s", storageID, name), storageID, nil
}

func (s *MemoryStore) Delete(ctx context.Context, storageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[storageID]; !ok {
		return false, nil
	}
	delete(s.files, storageID)
	return true, nil
}

// Len reports how many files are currently stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
