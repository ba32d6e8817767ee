package ports

import (
	"context"

	"archive-viewer/internal/domain"
)

// DataSource определяет интерфейс для получения сырых ресурсов архива.
type DataSource interface {
	// Fetch загружает ресурс по относительному пути (например, "index.json")
	// и возвращает его содержимое.
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Parser определяет интерфейс для разбора и проверки сырых JSON-ресурсов.
type Parser interface {
	ParseIndex(data []byte) (*domain.IndexData, error)
	ParseDay(data []byte) (*domain.RawDayBundle, error)
}

// ArchiveLoader загружает индекс и дни архива.
// Ошибка возвращается только при отмене или некорректной дате:
// сбои источника заменяются встроенным примером.
type ArchiveLoader interface {
	LoadIndex(ctx context.Context) (*domain.IndexResult, error)
	LoadDay(ctx context.Context, date string) (*domain.DayResult, error)
}

// DateResolver определяет интерфейс получения списка доступных дат.
type DateResolver interface {
	AvailableDates(ctx context.Context, index *domain.IndexData) ([]string, error)
}

// Normalizer определяет интерфейс преобразования сырого дня в каноническую модель.
type Normalizer interface {
	Normalize(raw *domain.RawDayBundle, index *domain.IndexData) (*domain.DayData, error)
}

// PreferenceStore хранит небольшие флаги интерфейса, переживающие перезагрузку.
type PreferenceStore interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// AudioHandle представляет один проигрыватель аудио.
type AudioHandle interface {
	// ID возвращает стабильный идентификатор проигрывателя.
	ID() string
	// Stop ставит воспроизведение на паузу и перематывает в начало.
	Stop()
}

// Exporter определяет интерфейс для вывода нормализованного дня.
type Exporter interface {
	Export(day *domain.DayData, viewer string) error
}

// OverviewExporter определяет интерфейс для выгрузки сводки по архиву.
type OverviewExporter interface {
	ExportOverview(overview *domain.Overview) error
}
