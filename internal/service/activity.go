// activity.go — журнал активности: запись событий, выборка, очистка, статистика.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/repository"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
)

// ActivityStats — количество событий по типам.
type ActivityStats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// ActivityService — бизнес-логика журнала активности.
// Журнал хранится только в PostgreSQL.
type ActivityService struct {
	repo      repository.ActivityRepository
	probe     storage.AvailabilityProbe
	publisher Publisher
	logger    *slog.Logger
}

// NewActivityService создаёт сервис журнала активности.
func NewActivityService(
	repo repository.ActivityRepository,
	probe storage.AvailabilityProbe,
	publisher Publisher,
	logger *slog.Logger,
) *ActivityService {
	return &ActivityService{
		repo:      repo,
		probe:     probe,
		publisher: orNoop(publisher),
		logger:    logger.With(slog.String("component", "activity_service")),
	}
}

// Record добавляет событие в журнал. Ошибки только логируются.
// При недоступной БД событие пропускается.
func (s *ActivityService) Record(ctx context.Context, a *model.ActivityRecord) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.ActivitySuccess
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	if !s.probe.IsAvailable(ctx) {
		s.logger.Debug("Событие не записано: база данных недоступна",
			slog.String("type", string(a.Type)),
			slog.String("file_name", a.FileName),
		)
		return
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Warn("Ошибка записи события активности",
			slog.String("type", string(a.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// List возвращает страницу журнала, новые события первыми.
// При недоступной БД — пустая страница.
func (s *ActivityService) List(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, model.Pagination, error) {
	q = q.Normalize()
	if q.Type != "" && !model.ValidActivityType(q.Type) {
		return nil, model.Pagination{}, fmt.Errorf("%w: неизвестный тип события %q", ErrValidation, q.Type)
	}

	if !s.probe.IsAvailable(ctx) {
		return []*model.ActivityRecord{}, model.NewPagination(0, q.Page, q.Limit), nil
	}

	records, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Warn("Ошибка выборки журнала, возвращается пустая страница",
			slog.String("error", err.Error()),
		)
		return []*model.ActivityRecord{}, model.NewPagination(0, q.Page, q.Limit), nil
	}
	return records, model.NewPagination(total, q.Page, q.Limit), nil
}

// Clear удаляет все события журнала.
func (s *ActivityService) Clear(ctx context.Context) (int64, error) {
	if !s.probe.IsAvailable(ctx) {
		return 0, ErrUnavailable
	}

	n, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала: %w", err)
	}

	s.logger.Info("Журнал активности очищен", slog.Int64("deleted", n))
	s.publisher.Publish(TopicActivity, EventActivityUpdated, map[string]any{"action": "clear"})
	return n, nil
}

// Stats возвращает количество событий по типам.
func (s *ActivityService) Stats(ctx context.Context) (*ActivityStats, error) {
	if !s.probe.IsAvailable(ctx) {
		return nil, ErrUnavailable
	}

	counts, err := s.repo.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики журнала: %w", err)
	}

	stats := &ActivityStats{ByType: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// Recent возвращает последние события без пагинации (начальные данные push-клиента).
func (s *ActivityService) Recent(ctx context.Context, limit int) []*model.ActivityRecord {
	records, _, _ := s.List(ctx, model.ActivityQuery{Page: 1, Limit: limit})
	return records
}
