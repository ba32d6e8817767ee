package prefs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"archive-viewer/internal/ports"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix - префикс ключей настроек в Redis.
const DefaultRedisPrefix = "archive-viewer:prefs:"

// RedisStore хранит флаги в Redis, чтобы их разделяли несколько экземпляров сервера.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ports.PreferenceStore = (*RedisStore)(nil)

// NewRedisStore подключается к Redis по URL и проверяет соединение.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix), nil
}

// NewRedisStoreWithClient создает хранилище поверх готового клиента.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// GetBool возвращает значение флага. Отсутствующий ключ читается как false.
func (s *RedisStore) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get preference %s: %w", key, err)
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("preference %s holds %q: %w", key, raw, err)
	}
	return value, nil
}

// SetBool сохраняет значение флага без срока жизни.
func (s *RedisStore) SetBool(ctx context.Context, key string, value bool) error {
	if err := s.client.Set(ctx, s.key(key), strconv.FormatBool(value), 0).Err(); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
