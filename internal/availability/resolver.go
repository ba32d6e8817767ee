// Package availability определяет, за какие календарные дни в архиве есть данные.
package availability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"archive-viewer/internal/domain"

	"golang.org/x/sync/singleflight"
)

// Resolution - итог одного прохода по цепочке стратегий.
type Resolution struct {
	// Dates - дедуплицированные даты YYYY-MM-DD по возрастанию. Никогда не пуст.
	Dates []string
	// Source - источник, давший даты сверх индекса. SourceIndex, если других не нашлось.
	Source Source
	// Endpoint - путь манифеста или листинга, давшего даты.
	Endpoint string
	// IndexDates - сколько корректных дат пришло из индекса.
	IndexDates int
	// Exhausted показывает, что все источники пусты и использован пример.
	Exhausted bool
}

// Option определяет функциональную опцию для Resolver.
type Option func(*Resolver)

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPassTimeout ограничивает длительность общего прохода.
func WithPassTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.passTimeout = d
		}
	}
}

// Resolver вычисляет список доступных дат и запоминает его до Reset.
type Resolver struct {
	strategies  []Strategy
	passTimeout time.Duration
	log         *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	cached []string
	done   bool
	gen    uint64
}

const resolveKey = "available-dates"

// NewResolver создает Resolver с заданной цепочкой стратегий.
func NewResolver(strategies []Strategy, opts ...Option) *Resolver {
	r := &Resolver{
		strategies:  strategies,
		passTimeout: time.Minute,
		log:         slog.Default().With("component", "availability"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AvailableDates возвращает запомненный список дат, вычисляя его при первом вызове.
// Одновременные первые вызовы ждут один общий проход. Проход не зависит от отмены
// контекста отдельного вызывающего: отмена лишь прекращает ожидание.
func (r *Resolver) AvailableDates(ctx context.Context, index *domain.IndexData) ([]string, error) {
	r.mu.Lock()
	if r.done {
		dates := slices.Clone(r.cached)
		r.mu.Unlock()
		return dates, nil
	}
	gen := r.gen
	r.mu.Unlock()

	ch := r.group.DoChan(resolveKey, func() (any, error) {
		// Предыдущий проход мог завершиться между проверкой выше и DoChan
		r.mu.Lock()
		if r.done {
			dates := r.cached
			r.mu.Unlock()
			return dates, nil
		}
		r.mu.Unlock()

		passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.passTimeout)
		defer cancel()

		res, err := r.Resolve(passCtx, index)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.gen == gen {
			r.cached = res.Dates
			r.done = true
		}
		r.mu.Unlock()

		r.log.Info("Доступные даты определены", "count", len(res.Dates), "source", res.Source, "endpoint", res.Endpoint)
		return res.Dates, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]string)), nil
	}
}

// Reset сбрасывает запомненный результат. Проход, начатый до Reset, не сохранит свой результат.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cached = nil
	r.done = false
	r.gen++
	r.mu.Unlock()
	r.group.Forget(resolveKey)
}

// Resolve выполняет один проход по цепочке без кеширования.
// Ошибка возвращается только при отмене ctx; сбои отдельных источников логируются и пропускаются.
func (r *Resolver) Resolve(ctx context.Context, index *domain.IndexData) (Resolution, error) {
	var (
		raw      []string
		res      = Resolution{Source: SourceIndex}
		firstWon bool
	)

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return Resolution{}, fmt.Errorf("resolve available dates: %w", err)
		}

		switch s.Mode() {
		case ModeFirst:
			if firstWon {
				continue
			}
		case ModeFallback:
			if len(raw) > 0 {
				continue
			}
		}

		out, err := s.Collect(ctx, index)
		if err != nil {
			if ctx.Err() != nil {
				return Resolution{}, fmt.Errorf("resolve available dates: %w", ctx.Err())
			}
			r.log.WarnContext(ctx, "Источник дат недоступен", "source", s.Source(), "endpoint", out.Endpoint, "error", err)
			continue
		}

		usable := domain.NormalizeDates(out.Dates)
		if len(usable) == 0 {
			r.log.DebugContext(ctx, "Источник не дал дат", "source", s.Source(), "endpoint", out.Endpoint)
			continue
		}

		raw = append(raw, usable...)
		switch s.Mode() {
		case ModeUnion:
			if s.Source() == SourceIndex {
				res.IndexDates += len(usable)
			}
		case ModeFirst:
			firstWon = true
			res.Source = s.Source()
			res.Endpoint = out.Endpoint
		case ModeFallback:
			res.Source = s.Source()
			res.Endpoint = out.Endpoint
			res.Exhausted = true
		}
	}

	res.Dates = domain.NormalizeDates(raw)
	return res, nil
}
