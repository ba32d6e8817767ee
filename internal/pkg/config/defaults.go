package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Archive defaults
	DefaultIndexPath           = "index.json"
	DefaultDayPathPattern      = "days/%s/conversations.json"
	DefaultListingPath         = "days/"
	DefaultRequestTimeout      = 15 * time.Second
	DefaultMaxRetries          = 2
	DefaultOverviewConcurrency = 4

	// Cache defaults
	DefaultDayTTL          = 60 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
	DefaultCacheMaxDays    = 366

	// Session defaults
	DefaultAutoAdvanceDelay = 100 * time.Millisecond

	// Preferences defaults
	DefaultPreferencesBackend = BackendMemory
	DefaultSQLitePath         = "preferences.db"
	DefaultRedisKeyPrefix     = "archive-viewer:prefs:"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultConfigFile - файл конфигурации, который ищется в рабочем каталоге
	DefaultConfigFile = "config.yml"
)

// Preference storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DefaultManifestPaths - пути манифестов дат в порядке приоритета.
var DefaultManifestPaths = []string{
	"days/index.json",
	"days/manifest.json",
	"available_dates.json",
	"dates.json",
}
