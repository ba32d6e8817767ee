package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"archive-viewer/internal/cache"
	"archive-viewer/internal/domain"
	"archive-viewer/internal/loader"
	"archive-viewer/internal/ports"
	"archive-viewer/internal/sample"

	"golang.org/x/sync/errgroup"
)

// UnknownOwner - имя владельца, если его не удалось определить.
const UnknownOwner = "unknown_user"

const defaultConcurrency = 4

// ArchiveOption определяет функциональную опцию для Archive.
type ArchiveOption func(*Archive)

// WithDayCache включает кэширование нормализованных дней.
func WithDayCache(store *cache.CacheStore, ttl time.Duration) ArchiveOption {
	return func(a *Archive) {
		a.cache = store
		a.cacheTTL = ttl
	}
}

// WithConcurrency ограничивает число одновременно загружаемых дней.
func WithConcurrency(n int) ArchiveOption {
	return func(a *Archive) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithArchiveLogger задает логгер.
func WithArchiveLogger(l *slog.Logger) ArchiveOption {
	return func(a *Archive) {
		if l != nil {
			a.log = l
		}
	}
}

// Archive инкапсулирует чтение архива: индекс, доступные даты и нормализованные дни.
type Archive struct {
	loader      ports.ArchiveLoader
	normalizer  ports.Normalizer
	resolver    ports.DateResolver
	cache       *cache.CacheStore
	cacheTTL    time.Duration
	concurrency int
	log         *slog.Logger

	indexMu sync.Mutex
	index   *domain.IndexResult
}

// NewArchive создает новый экземпляр Archive.
func NewArchive(
	ld ports.ArchiveLoader,
	normalizer ports.Normalizer,
	resolver ports.DateResolver,
	opts ...ArchiveOption,
) *Archive {
	a := &Archive{
		loader:      ld,
		normalizer:  normalizer,
		resolver:    resolver,
		concurrency: defaultConcurrency,
		log:         slog.Default().With("component", "archive"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Index возвращает глобальный индекс. Индекс из архива запоминается,
// подмененный примером загружается заново при следующем вызове.
func (a *Archive) Index(ctx context.Context) (*domain.IndexResult, error) {
	a.indexMu.Lock()
	if a.index != nil {
		res := a.index
		a.indexMu.Unlock()
		return res, nil
	}
	a.indexMu.Unlock()

	res, err := a.loader.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить индекс: %w", err)
	}

	if res.Origin == domain.OriginArchive {
		a.indexMu.Lock()
		a.index = res
		a.indexMu.Unlock()
	}
	return res, nil
}

// AvailableDates возвращает отсортированный список дней с данными.
func (a *Archive) AvailableDates(ctx context.Context) ([]string, error) {
	idx, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}
	// Даты примера не смешиваются с датами настоящего архива
	index := idx.Index
	if idx.Origin != domain.OriginArchive {
		index = nil
	}
	dates, err := a.resolver.AvailableDates(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("не удалось определить доступные даты: %w", err)
	}
	return dates, nil
}

// Day загружает и нормализует один день.
// Кэшируются только дни из архива: пример не должен пережить восстановление источника.
func (a *Archive) Day(ctx context.Context, date string) (*domain.DayData, error) {
	t, ok := domain.ParseCalendarDate(date)
	if !ok {
		return nil, fmt.Errorf("%w: %q", loader.ErrInvalidDate, date)
	}
	date = t.Format(domain.DateLayout)

	if a.cache != nil {
		if day, found := a.cache.Get(date); found {
			a.log.DebugContext(ctx, "Попадание в кеш", "date", date)
			return day, nil
		}
	}

	idx, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}

	res, err := a.loader.LoadDay(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить день %s: %w", date, err)
	}

	// Пример нормализуется со своим индексом, иначе имена участников не сойдутся
	index := idx.Index
	if res.Origin == domain.OriginSample {
		index = sample.Index()
	}

	day, err := a.normalizer.Normalize(res.Day, index)
	if err != nil {
		return nil, fmt.Errorf("не удалось нормализовать день %s: %w", date, err)
	}
	day.Origin = res.Origin

	if a.cache != nil && res.Origin == domain.OriginArchive {
		a.cache.Put(date, day, a.cacheTTL)
	}

	a.log.InfoContext(ctx, "День загружен",
		"date", date,
		"origin", res.Origin,
		"conversations", day.Stats.ConversationCount,
		"messages", day.Stats.MessageCount,
	)
	return day, nil
}

// AccountOwner определяет владельца архива по индексу, а если его там нет, по первому
// исходящему сообщению загруженных дней.
func (a *Archive) AccountOwner(ctx context.Context, days ...*domain.RawDayBundle) (string, error) {
	idx, err := a.Index(ctx)
	if err != nil {
		return "", err
	}
	return DetectAccountOwner(idx.Index, days...), nil
}

// DetectAccountOwner возвращает владельца архива: account_owner индекса, иначе автора
// первого сообщения с IsSender, иначе UnknownOwner.
func DetectAccountOwner(index *domain.IndexData, days ...*domain.RawDayBundle) string {
	if index != nil && index.AccountOwner != "" {
		return index.AccountOwner
	}
	for _, day := range days {
		if day == nil {
			continue
		}
		for _, conv := range day.Conversations {
			for _, msg := range conv.Messages {
				if msg.IsSender && msg.From != "" {
					return msg.From
				}
			}
		}
	}
	return UnknownOwner
}

// Overview загружает все доступные дни и собирает сводку по архиву.
// День, который не удалось загрузить из архива, попадает в сводку с HasData=false.
func (a *Archive) Overview(ctx context.Context) (*domain.Overview, error) {
	idx, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}
	dates, err := a.AvailableDates(ctx)
	if err != nil {
		return nil, err
	}

	days, err := a.loadDays(ctx, dates)
	if err != nil {
		return nil, err
	}

	ov := &domain.Overview{
		TotalDays: len(dates),
		Days:      make([]domain.DayActivity, 0, len(dates)),
		Origin:    idx.Origin,
	}
	if len(dates) > 0 {
		ov.FirstDate = dates[0]
		ov.LastDate = dates[len(dates)-1]
	}

	conversations := make(map[string]struct{})
	for i, date := range dates {
		day := days[i]
		if day == nil || day.Origin != idx.Origin {
			ov.Days = append(ov.Days, domain.DayActivity{Date: date})
			continue
		}

		activity := domain.DayActivity{
			Date:              date,
			MessageCount:      day.Stats.MessageCount,
			ConversationCount: len(day.Conversations),
			HasData:           true,
		}
		ov.Days = append(ov.Days, activity)
		ov.TotalMessages += activity.MessageCount

		for _, conv := range day.Conversations {
			conversations[conv.ID] = struct{}{}
			for _, msg := range conv.Messages {
				switch msg.Kind {
				case domain.KindImage, domain.KindSticker:
					ov.TotalImages += len(msg.Media)
				case domain.KindVideo:
					ov.TotalVideos += len(msg.Media)
				case domain.KindAudio:
					ov.TotalAudio += len(msg.Media)
				}
			}
		}

		if ov.MostActive == nil || activity.MessageCount > ov.MostActive.MessageCount {
			most := activity
			ov.MostActive = &most
		}
	}
	ov.TotalConversations = len(conversations)
	ov.TotalMedia = ov.TotalImages + ov.TotalVideos + ov.TotalAudio

	return ov, nil
}

// ConversationDates возвращает отсортированные даты, в которые в переписке есть сообщения.
func (a *Archive) ConversationDates(ctx context.Context, conversationID string) ([]string, error) {
	dates, err := a.AvailableDates(ctx)
	if err != nil {
		return nil, err
	}
	days, err := a.loadDays(ctx, dates)
	if err != nil {
		return nil, err
	}

	var out []string
	for i, day := range days {
		if day == nil {
			continue
		}
		if conv, ok := day.Conversation(conversationID); ok && len(conv.Messages) > 0 {
			out = append(out, dates[i])
		}
	}
	sort.Strings(out)
	return out, nil
}

// AdjacentDates возвращает соседние с date даты отсортированного списка.
// Пустая строка означает, что соседа нет. Если date нет в списке, соседи ищутся по порядку.
func AdjacentDates(dates []string, date string) (prev, next string) {
	i := sort.SearchStrings(dates, date)
	if i > 0 {
		prev = dates[i-1]
	}
	if i < len(dates) && dates[i] == date {
		i++
	}
	if i < len(dates) {
		next = dates[i]
	}
	return prev, next
}

// loadDays загружает дни с ограниченным параллелизмом. Результат выровнен по dates;
// день, который не удалось загрузить, остается nil. Ошибка возвращается только при отмене.
func (a *Archive) loadDays(ctx context.Context, dates []string) ([]*domain.DayData, error) {
	days := make([]*domain.DayData, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, date := range dates {
		g.Go(func() error {
			day, err := a.Day(gctx, date)
			if err != nil {
				if errors.Is(err, loader.ErrAborted) || gctx.Err() != nil {
					return err
				}
				a.log.WarnContext(gctx, "День пропущен", "date", date, "error", err)
				return nil
			}
			days[i] = day
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}
