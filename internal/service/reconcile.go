// reconcile.go — сверка директории загрузок с активными записями PostgreSQL.
//
// Обнаруживает проблемы:
//   - orphaned_file: файл на диске без активной записи
//   - missing_file: активная запись, но файла на диске нет
//   - size_mismatch: размер файла на диске не совпадает с записью
//
// Сверка только сообщает о проблемах и ничего не удаляет.
// Запускается по запросу и, если задан DM_RECONCILE_INTERVAL, периодически.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/filestore"
)

// Prometheus метрики сверки
var (
	reconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_reconcile_runs_total",
		Help: "Общее количество запусков сверки директории загрузок",
	})

	reconcileIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_reconcile_issues_total",
		Help: "Общее количество проблем, обнаруженных сверкой",
	}, []string{"type"})

	reconcileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dm_reconcile_duration_seconds",
		Help:    "Длительность выполнения сверки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// Типы проблем сверки.
const (
	IssueOrphanedFile = "orphaned_file"
	IssueMissingFile  = "missing_file"
	IssueSizeMismatch = "size_mismatch"
)

// ReconcileIssue — одна обнаруженная проблема.
type ReconcileIssue struct {
	Type        string `json:"type"`
	FileID      string `json:"fileId,omitempty"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// ReconcileSummary — количество проблем по типам.
type ReconcileSummary struct {
	Ok             int `json:"ok"`
	OrphanedFiles  int `json:"orphanedFiles"`
	MissingFiles   int `json:"missingFiles"`
	SizeMismatches int `json:"sizeMismatches"`
}

// ReconcileReport — результат одного запуска сверки.
type ReconcileReport struct {
	StartedAt    time.Time        `json:"startedAt"`
	CompletedAt  time.Time        `json:"completedAt"`
	FilesChecked int              `json:"filesChecked"`
	Issues       []ReconcileIssue `json:"issues"`
	Summary      ReconcileSummary `json:"summary"`
}

// DirectoryLister — перечисление файлов директории загрузок.
type DirectoryLister interface {
	List() ([]filestore.Entry, error)
}

// ActiveRecordLister — выборка всех активных записей из PostgreSQL.
type ActiveRecordLister interface {
	ListActive(ctx context.Context) ([]*model.FileRecord, error)
}

// ReconcileService — сервис сверки директории с записями.
type ReconcileService struct {
	dir      DirectoryLister
	records  ActiveRecordLister
	probe    storage.AvailabilityProbe
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex // защита от параллельного запуска
	inProcess bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReconcileService создаёт сервис сверки.
func NewReconcileService(
	dir DirectoryLister,
	records ActiveRecordLister,
	probe storage.AvailabilityProbe,
	interval time.Duration,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		dir:      dir,
		records:  records,
		probe:    probe,
		interval: interval,
		logger:   logger.With(slog.String("component", "reconcile")),
	}
}

// Start запускает периодическую сверку. При нулевом интервале ничего не делает.
func (rs *ReconcileService) Start(ctx context.Context) {
	if rs.interval <= 0 {
		rs.logger.Info("Периодическая сверка выключена")
		return
	}

	ctx, rs.cancel = context.WithCancel(ctx)
	rs.done = make(chan struct{})

	go func() {
		defer close(rs.done)

		ticker := time.NewTicker(rs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := rs.RunOnce(ctx); err != nil {
					rs.logger.Warn("Периодическая сверка не выполнена",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}()

	rs.logger.Info("Периодическая сверка запущена",
		slog.String("interval", rs.interval.String()),
	)
}

// Stop останавливает периодическую сверку.
func (rs *ReconcileService) Stop() {
	if rs.cancel != nil {
		rs.cancel()
	}
	if rs.done != nil {
		<-rs.done
	}
}

// running возвращает true, если сверка выполняется.
func (rs *ReconcileService) running() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.inProcess
}

// RunOnce выполняет одну сверку.
// ErrInProgress — сверка уже идёт, ErrUnavailable — PostgreSQL недоступен.
func (rs *ReconcileService) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	rs.mu.Lock()
	if rs.inProcess {
		rs.mu.Unlock()
		return nil, ErrInProgress
	}
	rs.inProcess = true
	rs.mu.Unlock()

	defer func() {
		rs.mu.Lock()
		rs.inProcess = false
		rs.mu.Unlock()
	}()

	if !rs.probe.IsAvailable(ctx) {
		return nil, ErrUnavailable
	}

	startedAt := time.Now().UTC()
	rs.logger.Info("Сверка начата")

	entries, err := rs.dir.List()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории загрузок: %w", err)
	}
	records, err := rs.records.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки активных записей: %w", err)
	}

	issues := compare(entries, records)

	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt)

	summary := ReconcileSummary{}
	for _, issue := range issues {
		switch issue.Type {
		case IssueOrphanedFile:
			summary.OrphanedFiles++
		case IssueMissingFile:
			summary.MissingFiles++
		case IssueSizeMismatch:
			summary.SizeMismatches++
		}
		reconcileIssuesTotal.WithLabelValues(issue.Type).Inc()
	}

	filesChecked := len(records) + summary.OrphanedFiles
	summary.Ok = max(filesChecked-len(issues), 0)

	reconcileRunsTotal.Inc()
	reconcileDurationSeconds.Observe(duration.Seconds())

	rs.logger.Info("Сверка завершена",
		slog.Int("files_checked", filesChecked),
		slog.Int("issues", len(issues)),
		slog.Int("ok", summary.Ok),
		slog.Duration("duration", duration),
	)

	return &ReconcileReport{
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
		FilesChecked: filesChecked,
		Issues:       issues,
		Summary:      summary,
	}, nil
}

// compare сопоставляет файлы на диске и записи по имени хранения.
// Результат упорядочен по пути.
func compare(entries []filestore.Entry, records []*model.FileRecord) []ReconcileIssue {
	onDisk := make(map[string]filestore.Entry, len(entries))
	for _, e := range entries {
		onDisk[e.Name] = e
	}

	issues := make([]ReconcileIssue, 0)
	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.StorageName] = true

		e, ok := onDisk[r.StorageName]
		if !ok {
			issues = append(issues, ReconcileIssue{
				Type:        IssueMissingFile,
				FileID:      r.ID,
				Path:        r.StorageName,
				Description: "Активная запись без файла на диске",
			})
			continue
		}
		if e.Size != r.Size {
			issues = append(issues, ReconcileIssue{
				Type:   IssueSizeMismatch,
				FileID: r.ID,
				Path:   r.StorageName,
				Description: fmt.Sprintf("Размер файла на диске %d не совпадает с записью %d",
					e.Size, r.Size),
			})
		}
	}

	for name := range onDisk {
		if !known[name] {
			issues = append(issues, ReconcileIssue{
				Type:        IssueOrphanedFile,
				Path:        name,
				Description: "Файл на диске без активной записи",
			})
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}
