package source

import (
	"context"
	"fmt"
	"strings"

	"archive-viewer/internal/ports"
)

// MemorySource реализует интерфейс DataSource для чтения данных из памяти.
type MemorySource struct {
	files map[string][]byte
}

// NewMemorySource создает новый экземпляр MemorySource.
// Ключи карты - пути ресурсов, например "index.json" или "days/2025-08-24/conversations.json".
func NewMemorySource(files map[string][]byte) ports.DataSource {
	normalized := make(map[string][]byte, len(files))
	for path, data := range files {
		normalized[strings.TrimLeft(path, "/")] = data
	}
	return &MemorySource{files: normalized}
}

// Fetch возвращает данные из памяти.
func (s *MemorySource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, ok := s.files[strings.TrimLeft(path, "/")]
	if !ok || data == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	// Возвращаем копию данных, чтобы избежать изменений оригинальных данных
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	return dataCopy, nil
}
