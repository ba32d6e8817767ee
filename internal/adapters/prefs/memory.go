// Package prefs содержит хранилища небольших флагов интерфейса, переживающих перезапуск.
package prefs

import (
	"context"
	"sync"

	"archive-viewer/internal/ports"
)

// MemoryStore хранит флаги в памяти процесса. Отсутствующий ключ читается как false.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMemoryStore создает новый экземпляр MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

var _ ports.PreferenceStore = (*MemoryStore)(nil)

// GetBool возвращает значение флага.
func (s *MemoryStore) GetBool(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key], nil
}

// SetBool сохраняет значение флага.
func (s *MemoryStore) SetBool(ctx context.Context, key string, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = value
	return nil
}
