// Package app собирает сервисы архива по конфигурации.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"archive-viewer/internal/adapters/parser"
	"archive-viewer/internal/adapters/source"
	"archive-viewer/internal/availability"
	"archive-viewer/internal/cache"
	"archive-viewer/internal/core/services"
	"archive-viewer/internal/loader"
	"archive-viewer/internal/pkg/config"
	"archive-viewer/internal/ports"
	"archive-viewer/internal/sample"
)

// Source выбирает источник данных: HTTP, каталог или встроенный пример.
func Source(cfg *config.Config, logger *slog.Logger) ports.DataSource {
	switch {
	case cfg.Archive.BaseURL != "":
		logger.Info("Источник архива: HTTP", "base_url", cfg.Archive.BaseURL)
		return source.NewHTTPSource(cfg.Archive.BaseURL,
			source.WithHTTPClient(&http.Client{Timeout: cfg.Archive.RequestTimeout}),
			source.WithMaxRetries(cfg.Archive.MaxRetries),
			source.WithHTTPLogger(logger),
		)
	case cfg.Archive.Dir != "":
		logger.Info("Источник архива: каталог", "dir", cfg.Archive.Dir)
		return source.NewDirSource(cfg.Archive.Dir)
	default:
		logger.Warn("Архив не настроен, используется встроенный пример")
		return sample.Source()
	}
}

// Archive связывает загрузчик, нормализатор, определение дат и кэш дней.
// Кэш очищается от устаревших записей, пока жив ctx.
func Archive(ctx context.Context, cfg *config.Config, src ports.DataSource, logger *slog.Logger) *services.Archive {
	ld := loader.New(src, parser.NewJsonParser(),
		loader.WithIndexPath(cfg.Archive.IndexPath),
		loader.WithDayPathPattern(cfg.Archive.DayPathPattern),
		loader.WithLogger(logger.With("component", "loader")),
	)
	resolver := availability.NewResolver(
		availability.DefaultStrategies(src, cfg.Archive.ManifestPaths, cfg.Archive.ListingPath),
		availability.WithLogger(logger.With("component", "availability")),
	)

	dayCache := cache.NewCacheStore(cache.WithMaxDays(cfg.Cache.MaxDays))
	dayCache.StartCleanupTicker(ctx, cfg.Cache.CleanupInterval)

	return services.NewArchive(ld, services.NewNormalizer(), resolver,
		services.WithDayCache(dayCache, cfg.Cache.DayTTL),
		services.WithConcurrency(cfg.Archive.OverviewConcurrency),
		services.WithArchiveLogger(logger.With("component", "archive")),
	)
}
