// Точка входа Dashboard Module — сервис загрузки файлов с аналитикой.
// Загружает конфигурацию, подключается к PostgreSQL (при недоступности
// работает в деградированном режиме по директории загрузок), создаёт
// сервисный слой, WebSocket hub и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/dashboard-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/dashboard-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/dashboard-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/dashboard-module/internal/auth"
	"github.com/bigkaa/goartstore/dashboard-module/internal/config"
	"github.com/bigkaa/goartstore/dashboard-module/internal/database"
	"github.com/bigkaa/goartstore/dashboard-module/internal/notify"
	"github.com/bigkaa/goartstore/dashboard-module/internal/repository"
	"github.com/bigkaa/goartstore/dashboard-module/internal/server"
	"github.com/bigkaa/goartstore/dashboard-module/internal/service"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/dbstore"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/dirscan"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/filestore"
)

const serviceID = "dashboard-module"

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Dashboard Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("upload_dir", cfg.UploadDir),
	)
	if cfg.UsingDefaultJWTSecret() {
		logger.Warn("DM_JWT_SECRET не задан, используется значение по умолчанию")
	}

	// 3. Подключение к PostgreSQL и миграции.
	// Ошибки не фатальны: сервис стартует в деградированном режиме.
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	migrateFn := func() error { return database.Migrate(cfg, logger) }
	availability := database.NewAvailability(pool, cfg.DBPingTimeout, migrateFn, logger)
	if err := migrateFn(); err != nil {
		logger.Warn("Миграции не применены, повтор при восстановлении PostgreSQL",
			slog.String("error", err.Error()),
		)
	} else {
		availability.MarkSchemaReady()
	}

	// 4. Директория загрузок
	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("Ошибка инициализации директории загрузок",
			slog.String("dir", cfg.UploadDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Директория загрузок готова", slog.String("path", files.DataDir()))

	// 5. Repositories
	fileRepo := repository.NewFileRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)

	// 6. Хранилище записей: PostgreSQL или сканирование директории
	records := storage.NewSelector(
		dbstore.New(fileRepo, files, logger),
		dirscan.New(files, logger),
		availability,
		logger,
	)

	// 7. WebSocket hub и сервисы
	hub := notify.NewHub(cfg.WSAllowedOrigins, logger)
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)

	activitySvc := service.NewActivityService(activityRepo, availability, hub, logger)
	analyticsSvc := service.NewAnalyticsService(records, snapshotRepo, availability, hub, logger)
	fileSvc := service.NewFileService(
		records, files, cache,
		activitySvc, analyticsSvc, hub,
		cfg.MaxFileSize,
		logger,
	)

	// Начальные данные для нового WebSocket-клиента
	hub.SetInitialData(func(ctx context.Context) any {
		recent := fileSvc.Recent(ctx, 10)
		views := make([]service.FileView, 0, len(recent))
		for _, rec := range recent {
			views = append(views, service.NewFileView(rec))
		}
		return map[string]any{
			"files":      views,
			"activities": activitySvc.Recent(ctx, 5),
		}
	})

	// 8. Фоновые задачи
	broadcaster := service.NewStatsBroadcaster(analyticsSvc, hub, cfg.BroadcastInterval, logger)
	broadcaster.Start(ctx)

	reconciler := service.NewReconcileService(files, fileRepo, availability, cfg.ReconcileInterval, logger)
	reconciler.Start(ctx)

	// 8.1 topologymetrics — мониторинг зависимости PostgreSQL
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	dephealthSvc, dephealthErr := service.NewDephealthService(
		serviceID,
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL("postgres"),
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Аутентификация
	userStore, err := auth.NewFileStore(cfg.UsersFile, logger)
	if err != nil {
		logger.Error("Ошибка загрузки файла пользователей",
			slog.String("path", cfg.UsersFile),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	authSvc := auth.NewService(userStore, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), cfg.BcryptCost, logger)

	// 10. Проверка запросов по OpenAPI-контракту
	validator, err := middleware.NewRequestValidator(openapi.Spec, logger)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Router и HTTP-сервер
	router := server.NewRouter(server.Handlers{
		Health:      handlers.NewHealthHandler(database.NewReadinessChecker(pool), files),
		Files:       handlers.NewFilesHandler(fileSvc, cfg.DevMode, logger),
		Analytics:   handlers.NewAnalyticsHandler(analyticsSvc, cfg.DevMode, logger),
		Activities:  handlers.NewActivitiesHandler(activitySvc, cfg.DevMode, logger),
		Auth:        handlers.NewAuthHandler(authSvc, cfg.DevMode, logger),
		Maintenance: handlers.NewMaintenanceHandler(reconciler, cfg.DevMode, logger),
		WebSocket:   hub,
		RequireAuth: middleware.BearerAuth(authSvc),
	},
		middleware.Recoverer(logger, cfg.DevMode),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		validator.Middleware(),
	)

	srv := server.New(cfg, logger, router)
	srv.RegisterOnShutdown(hub.Close)

	// 12. Запуск сервера (блокирующий вызов с graceful shutdown)
	runErr := srv.Run()

	// 13. Остановка фоновых задач
	broadcaster.Stop()
	reconciler.Stop()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	if runErr != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("Dashboard Module остановлен")
}
