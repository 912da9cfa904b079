// Пакет server — HTTP-сервер Dashboard Module с graceful shutdown.
// Без TLS — TLS termination на внешнем прокси.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/dashboard-module/internal/api/errors"
	"github.com/bigkaa/goartstore/dashboard-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/dashboard-module/internal/config"
)

// Handlers — обработчики, подключаемые к маршрутам.
type Handlers struct {
	Health      *handlers.HealthHandler
	Files       *handlers.FilesHandler
	Analytics   *handlers.AnalyticsHandler
	Activities  *handlers.ActivitiesHandler
	Auth        *handlers.AuthHandler
	Maintenance *handlers.MaintenanceHandler
	// WebSocket — push-канал на /ws
	WebSocket http.Handler
	// RequireAuth — middleware Bearer-аутентификации для /api/auth/profile
	RequireAuth func(http.Handler) http.Handler
}

// NewRouter создаёт chi router со всеми маршрутами.
// middlewares применяются ко всем маршрутам в порядке переданного среза.
func NewRouter(h Handlers, middlewares ...func(http.Handler) http.Handler) http.Handler {
	router := chi.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Маршрут не найден")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Метод не поддерживается")
	})

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)
	router.Handle("/ws", h.WebSocket)

	router.Route("/api", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", h.Files.UploadFiles)
			r.Get("/", h.Files.ListFiles)
			r.Get("/{id}", h.Files.GetFile)
			r.Delete("/{id}", h.Files.DeleteFile)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard-stats", h.Analytics.GetDashboardStats)
			r.Get("/storage-breakdown", h.Analytics.GetStorageBreakdown)
			r.Get("/distribution", h.Analytics.GetDistribution)
			r.Get("/trend-data", h.Analytics.GetTrendData)
			r.Get("/performance", h.Analytics.GetPerformance)
			r.Post("/snapshot", h.Analytics.CreateSnapshot)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.Activities.ListActivities)
			r.Get("/stats", h.Activities.GetActivityStats)
			r.Delete("/clear", h.Activities.ClearActivities)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Auth.Signup)
			r.Post("/login", h.Auth.Login)
			r.With(h.RequireAuth).Get("/profile", h.Auth.GetProfile)
		})

		r.Post("/maintenance/reconcile", h.Maintenance.Reconcile)
	})

	return router
}

// Server — HTTP-сервер Dashboard Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с переданным обработчиком.
func New(cfg *config.Config, logger *slog.Logger, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}

// RegisterOnShutdown добавляет функцию, вызываемую при Shutdown
// (закрытие hijacked WebSocket-соединений).
func (s *Server) RegisterOnShutdown(f func()) {
	s.httpServer.RegisterOnShutdown(f)
}
