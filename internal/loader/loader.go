// Package loader загружает сырые ресурсы архива и при сбое подменяет их встроенным примером.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"
	"archive-viewer/internal/sample"
)

var (
	// ErrAborted возвращается, если загрузка прервана отменой контекста.
	// Такой результат не применяется и не подменяется примером.
	ErrAborted = errors.New("load aborted")
	// ErrInvalidDate возвращается для строки, которая не является календарной датой.
	ErrInvalidDate = errors.New("invalid date")
)

const (
	// DefaultIndexPath - путь к глобальному индексу.
	DefaultIndexPath = "index.json"
	// DefaultDayPathPattern - шаблон пути к файлу дня.
	DefaultDayPathPattern = "days/%s/conversations.json"
)

// Option определяет функциональную опцию для Loader.
type Option func(*Loader)

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithIndexPath задает путь к индексу.
func WithIndexPath(path string) Option {
	return func(ld *Loader) {
		if path != "" {
			ld.indexPath = path
		}
	}
}

// WithDayPathPattern задает шаблон пути к файлу дня, дата подставляется через %s.
func WithDayPathPattern(pattern string) Option {
	return func(ld *Loader) {
		if pattern != "" {
			ld.dayPattern = pattern
		}
	}
}

// Loader реализует ports.ArchiveLoader.
type Loader struct {
	src        ports.DataSource
	parser     ports.Parser
	indexPath  string
	dayPattern string
	log        *slog.Logger
}

// New создает новый экземпляр Loader.
func New(src ports.DataSource, parser ports.Parser, opts ...Option) *Loader {
	l := &Loader{
		src:        src,
		parser:     parser,
		indexPath:  DefaultIndexPath,
		dayPattern: DefaultDayPathPattern,
		log:        slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DayPath возвращает путь к файлу дня для даты.
func (l *Loader) DayPath(date string) string {
	return fmt.Sprintf(l.dayPattern, date)
}

// LoadIndex загружает глобальный индекс.
// При ошибке транспорта или некорректном содержимом возвращается демонстрационный индекс целиком.
func (l *Loader) LoadIndex(ctx context.Context) (*domain.IndexResult, error) {
	if err := aborted(ctx); err != nil {
		return nil, err
	}

	index, err := l.fetchIndex(ctx)
	if abortErr := aborted(ctx); abortErr != nil {
		return nil, abortErr
	}
	if err != nil {
		l.log.WarnContext(ctx, "Индекс архива недоступен, используется демонстрационный архив", "error", err)
		return &domain.IndexResult{Index: sample.Index(), Origin: domain.OriginSample, FallbackReason: err}, nil
	}

	l.log.DebugContext(ctx, "Индекс загружен", "users", len(index.Users), "groups", len(index.Groups))
	return &domain.IndexResult{Index: index, Origin: domain.OriginArchive}, nil
}

// LoadDay загружает сырой файл дня.
// Дата принимается в свободной форме и приводится к YYYY-MM-DD.
func (l *Loader) LoadDay(ctx context.Context, date string) (*domain.DayResult, error) {
	t, ok := domain.ParseCalendarDate(date)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	date = t.Format(domain.DateLayout)

	if err := aborted(ctx); err != nil {
		return nil, err
	}

	day, err := l.fetchDay(ctx, date)
	if abortErr := aborted(ctx); abortErr != nil {
		l.log.DebugContext(ctx, "Загрузка дня прервана", "date", date)
		return nil, abortErr
	}
	if err != nil {
		l.log.WarnContext(ctx, "День недоступен, используется демонстрационный архив", "date", date, "error", err)
		return &domain.DayResult{Day: sample.Day(date), Origin: domain.OriginSample, FallbackReason: err}, nil
	}

	return &domain.DayResult{Day: day, Origin: domain.OriginArchive}, nil
}

func (l *Loader) fetchIndex(ctx context.Context) (*domain.IndexData, error) {
	data, err := l.src.Fetch(ctx, l.indexPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить %s: %w", l.indexPath, err)
	}
	index, err := l.parser.ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать %s: %w", l.indexPath, err)
	}
	return index, nil
}

func (l *Loader) fetchDay(ctx context.Context, date string) (*domain.RawDayBundle, error) {
	path := l.DayPath(date)
	data, err := l.src.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить %s: %w", path, err)
	}
	day, err := l.parser.ParseDay(data)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать %s: %w", path, err)
	}
	if day.Date == "" {
		day.Date = date
	}
	return day, nil
}

func aborted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return nil
}
