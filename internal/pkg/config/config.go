// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Archive содержит конфигурацию источника архива
type Archive struct {
	// BaseURL - адрес, по которому раздается распакованный экспорт. Взаимоисключающий с Dir.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Dir - локальный каталог экспорта.
	Dir                 string        `json:"dir" yaml:"dir"`
	IndexPath           string        `json:"index_path" yaml:"index_path"`
	DayPathPattern      string        `json:"day_path_pattern" yaml:"day_path_pattern"`
	ManifestPaths       []string      `json:"manifest_paths" yaml:"manifest_paths"`
	ListingPath         string        `json:"listing_path" yaml:"listing_path"`
	RequestTimeout      time.Duration `json:"request_timeout" yaml:"request_timeout"`
	MaxRetries          int           `json:"max_retries" yaml:"max_retries"`
	OverviewConcurrency int           `json:"overview_concurrency" yaml:"overview_concurrency"`
}

// Server содержит конфигурацию сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Cache содержит конфигурацию кэша нормализованных дней
type Cache struct {
	DayTTL          time.Duration `json:"day_ttl" yaml:"day_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxDays         int           `json:"max_days" yaml:"max_days"`
}

// Session содержит конфигурацию состояния сеанса просмотра
type Session struct {
	AutoAdvanceDelay time.Duration `json:"auto_advance_delay" yaml:"auto_advance_delay"`
}

// Preferences содержит конфигурацию хранилища пользовательских флагов
type Preferences struct {
	Backend        string `json:"backend" yaml:"backend"` // memory, sqlite, redis
	SQLitePath     string `json:"sqlite_path" yaml:"sqlite_path"`
	RedisURL       string `json:"redis_url" yaml:"redis_url"`
	RedisKeyPrefix string `json:"redis_key_prefix" yaml:"redis_key_prefix"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Archive     Archive     `json:"archive" yaml:"archive"`
	Server      Server      `json:"server" yaml:"server"`
	Cache       Cache       `json:"cache" yaml:"cache"`
	Session     Session     `json:"session" yaml:"session"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`
	Logging     Logging     `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл,
// затем переменные окружения (в том числе из .env файла).
// Пустой path означает config.yml в рабочем каталоге; отсутствие файла не является ошибкой.
func LoadConfig(path string) (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigFile
	}

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось применить переменные окружения: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("недопустимая конфигурация: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Archive: Archive{
			IndexPath:           DefaultIndexPath,
			DayPathPattern:      DefaultDayPathPattern,
			ManifestPaths:       append([]string(nil), DefaultManifestPaths...),
			ListingPath:         DefaultListingPath,
			RequestTimeout:      DefaultRequestTimeout,
			MaxRetries:          DefaultMaxRetries,
			OverviewConcurrency: DefaultOverviewConcurrency,
		},
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Cache: Cache{
			DayTTL:          DefaultDayTTL,
			CleanupInterval: DefaultCleanupInterval,
			MaxDays:         DefaultCacheMaxDays,
		},
		Session: Session{
			AutoAdvanceDelay: DefaultAutoAdvanceDelay,
		},
		Preferences: Preferences{
			Backend:        DefaultPreferencesBackend,
			SQLitePath:     DefaultSQLitePath,
			RedisKeyPrefix: DefaultRedisKeyPrefix,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// loadFromYAML накладывает значения из YAML-файла на cfg
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// applyEnv накладывает переменные окружения на cfg
func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString("ARCHIVE_BASE_URL", &cfg.Archive.BaseURL)
	setString("ARCHIVE_DIR", &cfg.Archive.Dir)
	setString("SERVER_HOST", &cfg.Server.Host)
	setString("PREFERENCES_BACKEND", &cfg.Preferences.Backend)
	setString("PREFERENCES_SQLITE_PATH", &cfg.Preferences.SQLitePath)
	setString("REDIS_URL", &cfg.Preferences.RedisURL)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FORMAT", &cfg.Logging.Format)
	if v := os.Getenv("ARCHIVE_MANIFEST_PATHS"); v != "" {
		cfg.Archive.ManifestPaths = splitList(v)
	}

	for _, apply := range []func() error{
		func() error { return setInt("SERVER_PORT", &cfg.Server.Port) },
		func() error { return setInt("ARCHIVE_MAX_RETRIES", &cfg.Archive.MaxRetries) },
		func() error { return setDuration("ARCHIVE_REQUEST_TIMEOUT", &cfg.Archive.RequestTimeout) },
		func() error { return setDuration("CACHE_DAY_TTL", &cfg.Cache.DayTTL) },
		func() error { return setInt("CACHE_MAX_DAYS", &cfg.Cache.MaxDays) },
		func() error { return setDuration("SESSION_AUTO_ADVANCE_DELAY", &cfg.Session.AutoAdvanceDelay) },
	} {
		if err := apply(); err != nil {
			return err
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	// Валидация источника архива
	if c.Archive.BaseURL != "" && c.Archive.Dir != "" {
		return fmt.Errorf("archive.base_url и archive.dir взаимоисключающие")
	}
	if c.Archive.BaseURL != "" {
		u, err := url.Parse(c.Archive.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("archive.base_url должен быть http(s) адресом")
		}
	}
	if !strings.Contains(c.Archive.DayPathPattern, "%s") {
		return fmt.Errorf("archive.day_path_pattern должен содержать %%s")
	}
	if c.Archive.IndexPath == "" {
		return fmt.Errorf("archive.index_path не может быть пустым")
	}
	if c.Archive.RequestTimeout <= 0 {
		return fmt.Errorf("archive.request_timeout должно быть положительным")
	}
	if c.Archive.MaxRetries < 0 {
		return fmt.Errorf("archive.max_retries должно быть неотрицательным")
	}
	if c.Archive.OverviewConcurrency <= 0 {
		return fmt.Errorf("archive.overview_concurrency должно быть положительным")
	}

	// Валидация остальных полей
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Cache.DayTTL <= 0 {
		return fmt.Errorf("cache.day_ttl должно быть положительным")
	}

	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache.cleanup_interval должно быть положительным")
	}

	if c.Cache.MaxDays < 0 {
		return fmt.Errorf("cache.max_days не может быть отрицательным")
	}

	if c.Session.AutoAdvanceDelay < 0 {
		return fmt.Errorf("session.auto_advance_delay должно быть неотрицательным")
	}

	switch c.Preferences.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Preferences.SQLitePath == "" {
			return fmt.Errorf("preferences.sqlite_path не может быть пустым для backend sqlite")
		}
	case BackendRedis:
		if c.Preferences.RedisURL == "" {
			return fmt.Errorf("preferences.redis_url не может быть пустым для backend redis")
		}
	default:
		return fmt.Errorf("preferences.backend должен быть одним из: memory, sqlite, redis")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}
