package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// fileColumns — список столбцов таблицы files для SELECT-запросов.
const fileColumns = `id, original_name, storage_name, storage_path, mime_type, size,
	category, metadata, processing_time, accuracy, processed_at, created_at, is_deleted`

// FileRepository — интерфейс доступа к таблице files.
// Все выборки возвращают только активные (не удалённые) записи.
type FileRepository interface {
	// Create сохраняет запись. ErrConflict при совпадении storage_name.
	Create(ctx context.Context, f *model.FileRecord) error
	// GetByID возвращает активную запись по UUID или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.FileRecord, error)
	// List выполняет выборку с фильтрами, сортировкой и пагинацией.
	// Возвращает: записи страницы, общее количество, ошибка.
	List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error)
	// ListActive возвращает все активные записи.
	ListActive(ctx context.Context) ([]*model.FileRecord, error)
	// MarkDeleted выставляет is_deleted. ErrNotFound, если запись уже удалена.
	MarkDeleted(ctx context.Context, id string) error
}

// fileRepo — реализация FileRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.FileRecord) error {
	metadata, err := json.Marshal(f.Metadata)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}

	var processingTime, accuracy *float64
	var processedAt *time.Time
	if f.Stats != nil {
		processingTime = &f.Stats.ProcessingTime
		accuracy = &f.Stats.Accuracy
		processedAt = &f.Stats.ProcessedAt
	}

	query := `
		INSERT INTO files (id, original_name, storage_name, storage_path, mime_type, size,
			category, metadata, processing_time, accuracy, processed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		f.ID, f.OriginalName, f.StorageName, f.StoragePath, f.MIMEType, f.Size,
		string(f.Category), metadata, processingTime, accuracy, processedAt, f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: storage_name %s уже существует", ErrConflict, f.StorageName)
		}
		return fmt.Errorf("ошибка создания записи файла: %w", err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.FileRecord, error) {
	// Идентификатор не UUID — запись не может существовать
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1 AND NOT is_deleted`, fileColumns)
	f, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error) {
	where, args := buildListWhere(q, 1)
	argNum := len(args) + 1

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM files %s %s LIMIT $%d OFFSET $%d`,
		fileColumns, where, buildOrderBy(q.Sort), argNum, argNum+1,
	)
	dataArgs := append(append([]any{}, args...), q.Limit, q.Offset())

	result, err := r.queryFiles(ctx, dataQuery, dataArgs...)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM files %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта файлов: %w", err)
	}
	return result, total, nil
}

func (r *fileRepo) ListActive(ctx context.Context) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE NOT is_deleted ORDER BY created_at DESC`, fileColumns)
	return r.queryFiles(ctx, query)
}

func (r *fileRepo) MarkDeleted(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	tag, err := r.db.Exec(ctx, `UPDATE files SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("ошибка пометки файла как удалённого: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// queryFiles выполняет запрос и сканирует все строки.
func (r *fileRepo) queryFiles(ctx context.Context, query string, args ...any) ([]*model.FileRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки файлов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.FileRecord, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// scanFile читает строку в FileRecord.
func scanFile(row pgx.Row) (*model.FileRecord, error) {
	var (
		f              model.FileRecord
		cat            string
		metadata       []byte
		processingTime *float64
		accuracy       *float64
		processedAt    *time.Time
	)
	err := row.Scan(
		&f.ID, &f.OriginalName, &f.StorageName, &f.StoragePath, &f.MIMEType, &f.Size,
		&cat, &metadata, &processingTime, &accuracy, &processedAt, &f.CreatedAt, &f.IsDeleted,
	)
	if err != nil {
		return nil, err
	}

	f.Category = category.Category(cat)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &f.Metadata); err != nil {
			return nil, fmt.Errorf("некорректные метаданные файла %s: %w", f.ID, err)
		}
	}
	if processingTime != nil && accuracy != nil {
		f.Stats = &model.FileStats{ProcessingTime: *processingTime, Accuracy: *accuracy}
		if processedAt != nil {
			f.Stats.ProcessedAt = *processedAt
		}
	}
	return &f, nil
}

// buildListWhere строит WHERE-условие выборки активных файлов.
// startArg — номер первого $-параметра (для корректной нумерации).
func buildListWhere(q model.FileQuery, startArg int) (whereClause string, args []any) {
	conditions := []string{"NOT is_deleted"}
	argNum := startArg

	if q.HasCategory() {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, q.Category)
		argNum++
	}

	// Поиск подстроки в имени, описании и тегах
	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(original_name ILIKE $%[1]d
			OR metadata->>'description' ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(
				CASE WHEN jsonb_typeof(metadata->'tags') = 'array' THEN metadata->'tags' ELSE '[]'::jsonb END
			) AS tag WHERE tag ILIKE $%[1]d))`, argNum))
		args = append(args, containsPattern(q.Search))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// buildOrderBy строит ORDER BY по whitelist ключей сортировки.
// Второй ключ (id) делает порядок детерминированным.
func buildOrderBy(sort model.SortKey) string {
	switch sort {
	case model.SortOldest:
		return "ORDER BY created_at ASC, id ASC"
	case model.SortName:
		return `ORDER BY original_name COLLATE "C" ASC, created_at ASC, id ASC`
	case model.SortSize:
		return "ORDER BY size DESC, created_at DESC, id ASC"
	default:
		return "ORDER BY created_at DESC, id ASC"
	}
}
