package cache

import (
	"context"
	"testing"
	"time"

	"archive-viewer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore(t *testing.T) {
	t.Run("Запись и чтение из кэша", func(t *testing.T) {
		cs := NewCacheStore()
		data := &domain.DayData{Date: "2025-08-24"}

		cs.Put("2025-08-24", data, time.Minute)

		day, found := cs.Get("2025-08-24")
		require.True(t, found)
		assert.Same(t, data, day)
	})

	t.Run("Чтение несуществующего ключа", func(t *testing.T) {
		cs := NewCacheStore()
		_, found := cs.Get("2025-01-01")
		assert.False(t, found)
	})

	t.Run("Истечение срока по часам хранилища", func(t *testing.T) {
		cs := NewCacheStore()
		now := time.Date(2025, 8, 24, 12, 0, 0, 0, time.UTC)
		cs.now = func() time.Time { return now }

		cs.Put("2025-08-24", &domain.DayData{}, time.Minute)
		_, found := cs.Get("2025-08-24")
		assert.True(t, found)

		now = now.Add(time.Minute)
		_, found = cs.Get("2025-08-24")
		assert.False(t, found, "на границе срока день уже просрочен")
	})

	t.Run("Очистка просроченных ключей", func(t *testing.T) {
		cs := NewCacheStore()
		cs.Put("expired", &domain.DayData{}, -time.Minute)
		cs.Put("valid", &domain.DayData{}, time.Minute)

		assert.Equal(t, 1, cs.CleanupExpired())

		_, found := cs.Get("valid")
		assert.True(t, found)
		assert.Equal(t, 1, cs.Len())
	})

	t.Run("Вытеснение при переполнении", func(t *testing.T) {
		cs := NewCacheStore(WithMaxDays(2))
		cs.Put("2025-08-24", &domain.DayData{}, time.Hour)
		cs.Put("2025-08-25", &domain.DayData{}, time.Minute)
		cs.Put("2025-08-26", &domain.DayData{}, time.Hour)

		assert.Equal(t, 2, cs.Len())
		_, found := cs.Get("2025-08-25")
		assert.False(t, found, "вытесняется день с ближайшим сроком")

		// перезапись существующего дня ничего не вытесняет
		cs.Put("2025-08-24", &domain.DayData{}, time.Hour)
		assert.Equal(t, 2, cs.Len())
	})

	t.Run("Счетчики и сброс", func(t *testing.T) {
		cs := NewCacheStore()
		cs.Put("a", &domain.DayData{}, time.Minute)
		cs.Get("a")
		cs.Get("b")

		assert.Equal(t, Stats{Hits: 1, Misses: 1, Entries: 1}, cs.Stats())

		cs.Invalidate()
		assert.Zero(t, cs.Len())
	})
}

func TestStartCleanupTicker(t *testing.T) {
	cs := NewCacheStore()

	cs.Put("expired", &domain.DayData{}, 50*time.Millisecond)
	cs.Put("valid", &domain.DayData{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs.StartCleanupTicker(ctx, 100*time.Millisecond)

	assert.Eventually(t, func() bool { return cs.Len() == 1 }, time.Second, 20*time.Millisecond,
		"просроченный день должен быть удален таймером")
}
