package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// ActivityRepository — интерфейс доступа к журналу активности.
type ActivityRepository interface {
	// Create добавляет запись в журнал.
	Create(ctx context.Context, a *model.ActivityRecord) error
	// List возвращает страницу журнала, новые записи первыми.
	List(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, int, error)
	// Clear удаляет все записи журнала. Возвращает количество удалённых.
	Clear(ctx context.Context) (int64, error)
	// CountByType возвращает количество записей по типам событий.
	CountByType(ctx context.Context) (map[string]int, error)
}

type activityRepo struct {
	db DBTX
}

// NewActivityRepository создаёт репозиторий журнала активности.
func NewActivityRepository(db DBTX) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, a *model.ActivityRecord) error {
	query := `
		INSERT INTO activities (id, file_id, type, file_name, file_size, file_category,
			description, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		a.ID, a.FileID, string(a.Type), a.FileName, a.FileSize, a.FileCategory,
		a.Description, string(a.Status), a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи события активности: %w", err)
	}
	return nil
}

func (r *activityRepo) List(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, int, error) {
	where, args := buildActivityWhere(q)
	argNum := len(args) + 1

	dataQuery := fmt.Sprintf(`
		SELECT id, file_id, type, file_name, file_size, file_category, description, status, timestamp
		FROM activities %s
		ORDER BY timestamp DESC, id ASC
		LIMIT $%d OFFSET $%d`, where, argNum, argNum+1)
	dataArgs := append(append([]any{}, args...), q.Limit, q.Offset())

	rows, err := r.db.Query(ctx, dataQuery, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выборки журнала: %w", err)
	}
	defer rows.Close()

	result := make([]*model.ActivityRecord, 0)
	for rows.Next() {
		var (
			a           model.ActivityRecord
			typ, status string
		)
		if err := rows.Scan(
			&a.ID, &a.FileID, &typ, &a.FileName, &a.FileSize, &a.FileCategory,
			&a.Description, &status, &a.Timestamp,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования события: %w", err)
		}
		a.Type = model.ActivityType(typ)
		a.Status = model.ActivityStatus(status)
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM activities %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта событий: %w", err)
	}
	return result, total, nil
}

func (r *activityRepo) Clear(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activities`)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *activityRepo) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM activities GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта событий по типам: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var (
			typ   string
			count int
		)
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования статистики: %w", err)
		}
		result[typ] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// buildActivityWhere строит WHERE-условие по типу события.
func buildActivityWhere(q model.ActivityQuery) (whereClause string, args []any) {
	if q.Type == "" {
		return "", nil
	}
	return "WHERE type = $1", []any{q.Type}
}
