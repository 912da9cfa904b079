// activities.go — HTTP handlers журнала активности.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/service"
)

// ActivityService — журнал активности.
type ActivityService interface {
	List(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, model.Pagination, error)
	Stats(ctx context.Context) (*service.ActivityStats, error)
	Clear(ctx context.Context) (int64, error)
}

// ActivitiesHandler — обработчик endpoints журнала.
type ActivitiesHandler struct {
	activities ActivityService
	responder
}

// NewActivitiesHandler создаёт обработчик endpoints журнала.
func NewActivitiesHandler(svc ActivityService, devMode bool, logger *slog.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{
		activities: svc,
		responder: responder{
			devMode: devMode,
			logger:  logger.With(slog.String("component", "activities_handler")),
		},
	}
}

// ListActivities обрабатывает GET /api/activities.
// Фильтр: type. Пагинация: page, limit.
func (h *ActivitiesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	var (
		typ         *string
		page, limit *int
	)
	query := r.URL.Query()
	for name, dest := range map[string]any{"type": &typ, "page": &page, "limit": &limit} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			h.fail(w, r, fmt.Errorf("%w: параметр %s: %v", service.ErrValidation, name, err))
			return
		}
	}

	records, p, err := h.activities.List(r.Context(), model.ActivityQuery{
		Type:  stringValue(typ),
		Page:  intValue(page),
		Limit: intValue(limit),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, records, p)
}

// GetActivityStats обрабатывает GET /api/activities/stats.
func (h *ActivitiesHandler) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.activities.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// ClearActivities обрабатывает DELETE /api/activities/clear.
// Удаляет весь журнал без подтверждения.
func (h *ActivitiesHandler) ClearActivities(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.activities.Clear(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Журнал активности очищен",
		Data:    map[string]int64{"deleted": deleted},
	})
}
