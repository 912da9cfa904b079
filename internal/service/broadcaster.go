// broadcaster.go — периодическая рассылка сводной статистики подключённым клиентам.
package service

import (
	"context"
	"log/slog"
	"time"
)

// StatsBroadcaster — фоновая рассылка statsUpdate всем клиентам.
type StatsBroadcaster struct {
	stats     StatsSource
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStatsBroadcaster создаёт сервис периодической рассылки статистики.
func NewStatsBroadcaster(
	stats StatsSource,
	publisher Publisher,
	interval time.Duration,
	logger *slog.Logger,
) *StatsBroadcaster {
	return &StatsBroadcaster{
		stats:     stats,
		publisher: orNoop(publisher),
		interval:  interval,
		logger:    logger.With(slog.String("component", "stats_broadcaster")),
	}
}

// Start запускает фоновую горутину рассылки.
func (b *StatsBroadcaster) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)

		b.logger.Info("Рассылка статистики запущена",
			slog.String("interval", b.interval.String()),
		)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				b.logger.Info("Рассылка статистики остановлена")
				return
			case <-ticker.C:
				b.Tick(ctx)
			}
		}
	}()
}

// Stop останавливает фоновую горутину и ждёт завершения.
func (b *StatsBroadcaster) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.done != nil {
		<-b.done
	}
}

// Tick выполняет одну рассылку. Без подключённых клиентов статистика не вычисляется.
// Возвращает true, если событие было отправлено.
func (b *StatsBroadcaster) Tick(ctx context.Context) bool {
	if b.publisher.ClientCount() == 0 {
		return false
	}

	stats, err := b.stats.DashboardStats(ctx)
	if err != nil {
		b.logger.Warn("Ошибка вычисления статистики для рассылки",
			slog.String("error", err.Error()),
		)
		return false
	}

	b.publisher.Broadcast(EventStatsUpdate, stats)
	return true
}
