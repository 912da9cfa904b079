// analytics.go — агрегаты дашборда и снимки аналитики.
// Агрегаты считаются над текущим источником записей (PostgreSQL или директория),
// параллельные запросы разделяют одну загрузку набора записей.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/bigkaa/goartstore/dashboard-module/internal/analytics"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/repository"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
)

// trendHistoryLimit — количество последних снимков для построения тренда.
const trendHistoryLimit = 100

// recordsLoadTimeout — предельное время общей загрузки набора записей.
const recordsLoadTimeout = 30 * time.Second

// AnalyticsService — бизнес-логика аналитики.
type AnalyticsService struct {
	records   storage.Backend
	snapshots repository.SnapshotRepository
	probe     storage.AvailabilityProbe
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time

	loads singleflight.Group
}

// NewAnalyticsService создаёт сервис аналитики.
func NewAnalyticsService(
	records storage.Backend,
	snapshots repository.SnapshotRepository,
	probe storage.AvailabilityProbe,
	publisher Publisher,
	logger *slog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		records:   records,
		snapshots: snapshots,
		probe:     probe,
		publisher: orNoop(publisher),
		logger:    logger.With(slog.String("component", "analytics_service")),
		now:       time.Now,
	}
}

// loadRecords загружает все активные записи; одновременные вызовы
// получают результат одной загрузки. Общая загрузка не зависит от отмены
// контекста отдельного вызова: отменённый вызов выходит сам, остальные
// дожидаются результата.
func (s *AnalyticsService) loadRecords(ctx context.Context) ([]*model.FileRecord, error) {
	ch := s.loads.DoChan("records", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordsLoadTimeout)
		defer cancel()
		return s.records.All(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ошибка загрузки записей о файлах: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("ошибка загрузки записей о файлах: %w", res.Err)
		}
		return res.Val.([]*model.FileRecord), nil
	}
}

// DashboardStats возвращает сводку для главной панели.
func (s *AnalyticsService) DashboardStats(ctx context.Context) (*analytics.DashboardStats, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	stats := analytics.Dashboard(records, s.now())
	return &stats, nil
}

// StorageBreakdown возвращает распределение занятого места по категориям.
func (s *AnalyticsService) StorageBreakdown(ctx context.Context) ([]analytics.BreakdownItem, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.StorageBreakdown(records), nil
}

// Distribution возвращает распределение количества файлов по категориям.
func (s *AnalyticsService) Distribution(ctx context.Context) ([]analytics.DistributionItem, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Distribution(records), nil
}

// Performance возвращает метрики производительности обработки.
func (s *AnalyticsService) Performance(ctx context.Context) (*analytics.Performance, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	p := analytics.PerformanceOf(records)
	return &p, nil
}

// Trend возвращает дневной ряд за период и нормализованное имя периода.
// Без PostgreSQL история пуста и ряд состоит из нулей.
func (s *AnalyticsService) Trend(ctx context.Context, period string) ([]analytics.TrendPoint, string, error) {
	period, _ = analytics.ParsePeriod(period)

	var history []*model.AnalyticsSnapshot
	if s.probe.IsAvailable(ctx) {
		var err error
		history, err = s.snapshots.ListRecent(ctx, trendHistoryLimit)
		if err != nil {
			return nil, "", fmt.Errorf("ошибка загрузки истории снимков: %w", err)
		}
	}
	return analytics.TrendSeries(history, period, s.now()), period, nil
}

// CreateSnapshot сохраняет снимок текущих агрегатов.
// Требует PostgreSQL: иначе ErrUnavailable.
func (s *AnalyticsService) CreateSnapshot(ctx context.Context) (*model.AnalyticsSnapshot, error) {
	if !s.probe.IsAvailable(ctx) {
		return nil, ErrUnavailable
	}

	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	snap := analytics.NewSnapshot(records, s.now())
	snap.ID = uuid.NewString()
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("ошибка сохранения снимка: %w", err)
	}

	s.logger.Info("Снимок аналитики создан",
		slog.String("id", snap.ID),
		slog.Int("total_files", snap.TotalFiles),
	)
	s.publisher.Publish(TopicAnalytics, EventAnalyticsUpdated, snap)
	return snap, nil
}
