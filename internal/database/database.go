// Пакет database — подключение к PostgreSQL через pgxpool,
// применение миграций (golang-migrate), проверка доступности и готовности.
// Сервис стартует и без PostgreSQL: пул создаётся без установки соединения,
// схема применяется при первой успешной проверке доступности.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/goartstore/dashboard-module/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect создаёт пул подключений к PostgreSQL.
// Недоступность сервера при старте не считается ошибкой: пул
// устанавливает соединения по требованию.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("PostgreSQL недоступен, запуск в деградированном режиме",
			slog.String("host", cfg.DBHost),
			slog.Int("port", cfg.DBPort),
			slog.String("error", err.Error()),
		)
		return pool, nil
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)
	return pool, nil
}

// Migrate применяет SQL-миграции из embedded FS к базе данных.
// Использует golang-migrate с драйвером pgx5.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL("pgx5"))
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// Pinger — минимальный интерфейс пула для проверки доступности.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Availability — живая проверка доступности PostgreSQL.
// Результат не кэшируется: каждый вызов выполняет ping с коротким таймаутом.
// При первой успешной проверке после старта без БД применяется схема.
type Availability struct {
	pool    Pinger
	timeout time.Duration
	migrate func() error
	logger  *slog.Logger

	schemaReady atomic.Bool
	migrateMu   sync.Mutex
}

// NewAvailability создаёт проверку доступности.
// migrateFn применяет схему; nil — схема считается применённой.
func NewAvailability(pool Pinger, timeout time.Duration, migrateFn func() error, logger *slog.Logger) *Availability {
	a := &Availability{
		pool:    pool,
		timeout: timeout,
		migrate: migrateFn,
		logger:  logger.With(slog.String("component", "db_availability")),
	}
	if migrateFn == nil {
		a.schemaReady.Store(true)
	}
	return a
}

// MarkSchemaReady отмечает схему как применённую (успешная миграция при старте).
func (a *Availability) MarkSchemaReady() {
	a.schemaReady.Store(true)
}

// IsAvailable выполняет ping и, при необходимости, применяет схему.
// Возвращает false, если PostgreSQL не отвечает или схема не применена.
func (a *Availability) IsAvailable(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.pool.Ping(pingCtx); err != nil {
		return false
	}
	if a.schemaReady.Load() {
		return true
	}
	return a.ensureSchema()
}

// ensureSchema применяет миграции один раз после восстановления соединения.
func (a *Availability) ensureSchema() bool {
	a.migrateMu.Lock()
	defer a.migrateMu.Unlock()

	if a.schemaReady.Load() {
		return true
	}
	if err := a.migrate(); err != nil {
		a.logger.Error("Не удалось применить миграции после восстановления PostgreSQL",
			slog.String("error", err.Error()),
		)
		return false
	}
	a.schemaReady.Store(true)
	a.logger.Info("PostgreSQL доступен, схема применена")
	return true
}

// ReadinessChecker — проверка готовности PostgreSQL для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	pool Pinger
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(pool Pinger) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady проверяет подключение к PostgreSQL через ping.
// При недоступной БД возвращается "degraded": сервис продолжает
// обслуживать запросы из директории загрузок.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "degraded", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	return "ok", "подключение активно"
}
