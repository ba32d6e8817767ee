package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"archive-viewer/internal/adapters/prefs"
	"archive-viewer/internal/app"
	"archive-viewer/internal/core/services"
	applog "archive-viewer/internal/log"
	"archive-viewer/internal/pkg/config"
	"archive-viewer/internal/pkg/term"
	"archive-viewer/internal/session"
)

// env - общие зависимости команд.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	archive *services.Archive
	term    *term.Terminal
}

func setup(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Логи идут в stderr, чтобы не смешиваться с выводом команд
	logger := applog.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	return &env{
		cfg:     cfg,
		log:     logger,
		archive: app.Archive(ctx, cfg, app.Source(cfg, logger), logger),
		term:    term.NewTerminal(),
	}, nil
}

// openSession создает состояние сеанса с сохраняемыми настройками.
// Возвращаемая функция закрывает сеанс и хранилище.
func (e *env) openSession(ctx context.Context) (*session.Store, func(), error) {
	store, err := prefs.Open(ctx, e.cfg.Preferences)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	s := session.NewStore(
		session.WithPreferences(store),
		session.WithAutoAdvanceDelay(e.cfg.Session.AutoAdvanceDelay),
		session.WithLogger(e.log.With("component", "session")),
	)
	if err := s.RestorePreferences(ctx); err != nil {
		e.log.Warn("Не удалось восстановить настройки", "error", err)
	}

	return s, func() {
		s.Close()
		if err := store.Close(); err != nil {
			e.log.Warn("Не удалось закрыть хранилище настроек", "error", err)
		}
	}, nil
}
