// analytics.go — HTTP handlers аналитики дашборда.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/goartstore/dashboard-module/internal/analytics"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/service"
)

// AnalyticsService — агрегаты и снимки аналитики.
type AnalyticsService interface {
	DashboardStats(ctx context.Context) (*analytics.DashboardStats, error)
	StorageBreakdown(ctx context.Context) ([]analytics.BreakdownItem, error)
	Distribution(ctx context.Context) ([]analytics.DistributionItem, error)
	Performance(ctx context.Context) (*analytics.Performance, error)
	Trend(ctx context.Context, period string) ([]analytics.TrendPoint, string, error)
	CreateSnapshot(ctx context.Context) (*model.AnalyticsSnapshot, error)
}

// AnalyticsHandler — обработчик endpoints аналитики.
type AnalyticsHandler struct {
	analytics AnalyticsService
	responder
}

// NewAnalyticsHandler создаёт обработчик endpoints аналитики.
func NewAnalyticsHandler(svc AnalyticsService, devMode bool, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: svc,
		responder: responder{
			devMode: devMode,
			logger:  logger.With(slog.String("component", "analytics_handler")),
		},
	}
}

// GetDashboardStats обрабатывает GET /api/analytics/dashboard-stats.
func (h *AnalyticsHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.DashboardStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// GetStorageBreakdown обрабатывает GET /api/analytics/storage-breakdown.
func (h *AnalyticsHandler) GetStorageBreakdown(w http.ResponseWriter, r *http.Request) {
	items, err := h.analytics.StorageBreakdown(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

// GetDistribution обрабатывает GET /api/analytics/distribution.
func (h *AnalyticsHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	items, err := h.analytics.Distribution(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

// GetPerformance обрабатывает GET /api/analytics/performance.
func (h *AnalyticsHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.analytics.Performance(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, perf)
}

// GetTrendData обрабатывает GET /api/analytics/trend-data?period=.
func (h *AnalyticsHandler) GetTrendData(w http.ResponseWriter, r *http.Request) {
	var period *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &period); err != nil {
		h.fail(w, r, fmt.Errorf("%w: параметр period: %v", service.ErrValidation, err))
		return
	}

	points, normalized, err := h.analytics.Trend(r.Context(), stringValue(period))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: points, Period: normalized})
}

// CreateSnapshot обрабатывает POST /api/analytics/snapshot.
// Без PostgreSQL — 503.
func (h *AnalyticsHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.analytics.CreateSnapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Снимок аналитики создан",
		Data:    snap,
	})
}
