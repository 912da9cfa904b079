// Пакет config — загрузка и валидация конфигурации Dashboard Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// defaultJWTSecret — секрет по умолчанию для локального запуска.
// В production DM_JWT_SECRET обязан быть задан явно.
const defaultJWTSecret = "fallback-secret-key"

// Config содержит все параметры конфигурации Dashboard Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// DevMode — режим разработки: 500-ответы содержат текст ошибки и stack trace
	DevMode bool

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Файловое хранилище ---

	// UploadDir — директория хранения загруженных файлов
	UploadDir string
	// MaxFileSize — максимальный размер одного файла в байтах (по умолчанию 500 MB)
	MaxFileSize int64

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	// DBPingTimeout — таймаут проверки доступности БД перед каждой операцией
	DBPingTimeout time.Duration

	// --- Аутентификация ---

	// UsersFile — путь к JSON-файлу с учётными записями
	UsersFile string
	// JWTSecret — HMAC-секрет подписи токенов
	JWTSecret string
	// JWTTTL — время жизни токена (по умолчанию 7 дней)
	JWTTTL time.Duration
	// BcryptCost — стоимость bcrypt-хэширования паролей
	BcryptCost int

	// --- Фоновые процессы ---

	// BroadcastInterval — интервал рассылки статистики подписчикам (по умолчанию 5s)
	BroadcastInterval time.Duration
	// ReconcileInterval — интервал фоновой сверки директории с БД (0 = выключено)
	ReconcileInterval time.Duration

	// --- Кэш ---

	// CacheSize — максимальное количество записей в LRU-кэше метаданных
	CacheSize int
	// CacheTTL — время жизни записи в кэше
	CacheTTL time.Duration

	// --- WebSocket ---

	// WSAllowedOrigins — допустимые Origin для WebSocket (пусто = любой)
	WSAllowedOrigins []string

	// --- Мониторинг зависимостей ---

	// DephealthGroup — имя группы в метриках topologymetrics
	DephealthGroup string
	// DephealthCheckInterval — интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// DephealthIsEntry — добавляет лейбл isentry=yes ко всем зависимостям
	DephealthIsEntry bool
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если значения некорректны.
//
//nolint:funlen,gocyclo // линейный разбор переменных окружения
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DM_PORT — порт HTTP-сервера (по умолчанию 5000)
	cfg.Port, err = getEnvInt("DM_PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("DM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DM_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// DM_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("DM_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("DM_LOG_LEVEL: %w", err)
	}

	// DM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// DM_DEV_MODE — режим разработки (по умолчанию false)
	cfg.DevMode, err = getEnvBool("DM_DEV_MODE", false)
	if err != nil {
		return nil, fmt.Errorf("DM_DEV_MODE: %w", err)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("DM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("DM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("DM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("DM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Файловое хранилище ---

	cfg.UploadDir = getEnvDefault("DM_UPLOAD_DIR", "./uploads")

	// DM_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 536870912 = 500 MB)
	cfg.MaxFileSize, err = getEnvInt64("DM_MAX_FILE_SIZE", 536870912)
	if err != nil {
		return nil, fmt.Errorf("DM_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("DM_MAX_FILE_SIZE: значение должно быть > 0")
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("DM_DB_HOST", "localhost")
	cfg.DBPort, err = getEnvInt("DM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("DM_DB_PORT: %w", err)
	}
	cfg.DBName = getEnvDefault("DM_DB_NAME", "dashboard")
	cfg.DBUser = getEnvDefault("DM_DB_USER", "dashboard")
	cfg.DBPassword = os.Getenv("DM_DB_PASSWORD")
	cfg.DBSSLMode = getEnvDefault("DM_DB_SSL_MODE", "disable")
	switch cfg.DBSSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return nil, fmt.Errorf("DM_DB_SSL_MODE: недопустимое значение %q", cfg.DBSSLMode)
	}

	// DM_DB_PING_TIMEOUT — таймаут проверки доступности БД (по умолчанию 2s)
	cfg.DBPingTimeout, err = getEnvDurationPositive("DM_DB_PING_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_DB_PING_TIMEOUT: %w", err)
	}

	// --- Аутентификация ---

	cfg.UsersFile = getEnvDefault("DM_USERS_FILE", "./data/users.json")
	cfg.JWTSecret = getEnvDefault("DM_JWT_SECRET", defaultJWTSecret)

	cfg.JWTTTL, err = getEnvDurationPositive("DM_JWT_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DM_JWT_TTL: %w", err)
	}

	cfg.BcryptCost, err = getEnvInt("DM_BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("DM_BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("DM_BCRYPT_COST: значение %d вне диапазона 4-31", cfg.BcryptCost)
	}

	// --- Фоновые процессы ---

	cfg.BroadcastInterval, err = getEnvDurationPositive("DM_BROADCAST_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_BROADCAST_INTERVAL: %w", err)
	}

	cfg.ReconcileInterval, err = getEnvDuration("DM_RECONCILE_INTERVAL", 0)
	if err != nil {
		return nil, fmt.Errorf("DM_RECONCILE_INTERVAL: %w", err)
	}
	if cfg.ReconcileInterval < 0 {
		return nil, fmt.Errorf("DM_RECONCILE_INTERVAL: значение не может быть отрицательным")
	}

	// --- Кэш ---

	cfg.CacheSize, err = getEnvInt("DM_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("DM_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("DM_CACHE_SIZE: значение должно быть >= 1")
	}

	cfg.CacheTTL, err = getEnvDurationPositive("DM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DM_CACHE_TTL: %w", err)
	}

	// --- WebSocket ---

	cfg.WSAllowedOrigins = getEnvList("DM_WS_ALLOWED_ORIGINS")

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("DM_DEPHEALTH_GROUP", "dashboard")

	cfg.DephealthCheckInterval, err = getEnvDurationPositive("DM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения в формате postgres://
// (для лейблов dephealth и golang-migrate).
func (c *Config) DatabaseURL(scheme string) string {
	return fmt.Sprintf(
		"%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme, c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// UsingDefaultJWTSecret сообщает, что секрет JWT не задан и используется значение по умолчанию.
func (c *Config) UsingDefaultJWTSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 из переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationPositive — как getEnvDuration, но значение обязано быть > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// getEnvList возвращает список значений, разделённых запятыми.
// Пустые элементы отбрасываются.
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
