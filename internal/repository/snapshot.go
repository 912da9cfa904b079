package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// SnapshotRepository — интерфейс доступа к снимкам агрегатов.
// Снимки только добавляются, изменения не предусмотрены.
type SnapshotRepository interface {
	// Create сохраняет снимок.
	Create(ctx context.Context, s *model.AnalyticsSnapshot) error
	// ListRecent возвращает не более limit последних снимков, новые первыми.
	ListRecent(ctx context.Context, limit int) ([]*model.AnalyticsSnapshot, error)
}

type snapshotRepo struct {
	db DBTX
}

// NewSnapshotRepository создаёт репозиторий снимков.
func NewSnapshotRepository(db DBTX) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Create(ctx context.Context, s *model.AnalyticsSnapshot) error {
	counts, err := json.Marshal(s.CategoryCounts)
	if err != nil {
		return fmt.Errorf("ошибка сериализации category_counts: %w", err)
	}
	sizes, err := json.Marshal(s.CategorySizes)
	if err != nil {
		return fmt.Errorf("ошибка сериализации category_sizes: %w", err)
	}

	query := `
		INSERT INTO analytics_snapshots (id, timestamp, total_files, total_size,
			category_counts, category_sizes, average_processing_time, average_accuracy,
			total_processed, daily_uploads, storage_efficiency, peak_upload_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		s.ID, s.Timestamp, s.TotalFiles, s.TotalSize, counts, sizes,
		s.Processing.AverageProcessingTime, s.Processing.AverageAccuracy, s.Processing.TotalProcessed,
		s.DailyUploads, s.StorageEfficiency, s.PeakUploadTime,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: снимок %s", ErrConflict, s.ID)
		}
		return fmt.Errorf("ошибка сохранения снимка: %w", err)
	}
	return nil
}

func (r *snapshotRepo) ListRecent(ctx context.Context, limit int) ([]*model.AnalyticsSnapshot, error) {
	query := `
		SELECT id, timestamp, total_files, total_size, category_counts, category_sizes,
			average_processing_time, average_accuracy, total_processed,
			daily_uploads, storage_efficiency, peak_upload_time
		FROM analytics_snapshots
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки снимков: %w", err)
	}
	defer rows.Close()

	result := make([]*model.AnalyticsSnapshot, 0)
	for rows.Next() {
		var (
			s             model.AnalyticsSnapshot
			counts, sizes []byte
		)
		if err := rows.Scan(
			&s.ID, &s.Timestamp, &s.TotalFiles, &s.TotalSize, &counts, &sizes,
			&s.Processing.AverageProcessingTime, &s.Processing.AverageAccuracy, &s.Processing.TotalProcessed,
			&s.DailyUploads, &s.StorageEfficiency, &s.PeakUploadTime,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования снимка: %w", err)
		}
		if err := json.Unmarshal(counts, &s.CategoryCounts); err != nil {
			return nil, fmt.Errorf("некорректный category_counts снимка %s: %w", s.ID, err)
		}
		if err := json.Unmarshal(sizes, &s.CategorySizes); err != nil {
			return nil, fmt.Errorf("некорректный category_sizes снимка %s: %w", s.ID, err)
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}
