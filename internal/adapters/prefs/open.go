package prefs

import (
	"context"
	"fmt"
	"io"

	"archive-viewer/internal/pkg/config"
	"archive-viewer/internal/ports"
)

// Store - хранилище настроек, которое нужно закрыть по завершении работы.
type Store interface {
	ports.PreferenceStore
	io.Closer
}

type nopCloser struct {
	ports.PreferenceStore
}

func (nopCloser) Close() error { return nil }

// Open создает хранилище по секции preferences конфигурации.
func Open(ctx context.Context, cfg config.Preferences) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
	case config.BackendMemory, "":
		return nopCloser{NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unknown preferences backend %q", cfg.Backend)
	}
}
