// Package cache хранит нормализованные дни архива между запросами.
package cache

import (
	"context"
	"sync"
	"time"

	"archive-viewer/internal/domain"
)

// DefaultMaxDays - предел числа дней в кэше по умолчанию.
const DefaultMaxDays = 366

// Option определяет функциональную опцию для CacheStore.
type Option func(*CacheStore)

// WithMaxDays ограничивает число хранимых дней. n <= 0 снимает ограничение.
func WithMaxDays(n int) Option {
	return func(cs *CacheStore) {
		cs.maxDays = n
	}
}

type entry struct {
	day       *domain.DayData
	expiresAt time.Time
}

// Stats - счетчики обращений к кэшу.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// CacheStore кэширует нормализованные дни по дате с ограниченным сроком жизни.
// При переполнении вытесняется день, срок которого истекает раньше остальных.
type CacheStore struct {
	mu      sync.Mutex
	days    map[string]entry
	maxDays int
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// NewCacheStore создает новый экземпляр CacheStore
func NewCacheStore(opts ...Option) *CacheStore {
	cs := &CacheStore{
		days:    make(map[string]entry),
		maxDays: DefaultMaxDays,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Get возвращает день, если он есть в кэше и не просрочен.
func (cs *CacheStore) Get(date string) (*domain.DayData, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	e, ok := cs.days[date]
	if !ok || !cs.now().Before(e.expiresAt) {
		cs.misses++
		return nil, false
	}
	cs.hits++
	return e.day, true
}

// Put сохраняет день на время ttl.
func (cs *CacheStore) Put(date string, day *domain.DayData, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.days[date]; !exists && cs.maxDays > 0 && len(cs.days) >= cs.maxDays {
		cs.evictLocked()
	}
	cs.days[date] = entry{day: day, expiresAt: cs.now().Add(ttl)}
}

func (cs *CacheStore) evictLocked() {
	var (
		victim string
		soon   time.Time
	)
	for date, e := range cs.days {
		if victim == "" || e.expiresAt.Before(soon) || (e.expiresAt.Equal(soon) && date < victim) {
			victim, soon = date, e.expiresAt
		}
	}
	delete(cs.days, victim)
}

// Invalidate удаляет все дни, например после смены источника архива.
func (cs *CacheStore) Invalidate() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	clear(cs.days)
}

// Len возвращает число дней, включая еще не удаленные просроченные.
func (cs *CacheStore) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.days)
}

// Stats возвращает счетчики попаданий и промахов.
func (cs *CacheStore) Stats() Stats {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return Stats{Hits: cs.hits, Misses: cs.misses, Entries: len(cs.days)}
}

// CleanupExpired удаляет просроченные дни и возвращает их число.
func (cs *CacheStore) CleanupExpired() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	removed := 0
	for date, e := range cs.days {
		if !now.Before(e.expiresAt) {
			delete(cs.days, date)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker периодически удаляет просроченные дни, пока не отменен ctx.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}
