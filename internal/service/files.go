// files.go — бизнес-логика файлов: загрузка, выборка, получение, удаление.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bigkaa/goartstore/dashboard-module/internal/analytics"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/repository"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/filestore"
)

// Оценка точности классификации при загрузке.
const (
	accuracyMatched  = 100
	accuracyMismatch = 85
)

// Records — источник записей о файлах с выбором реализации на вызов.
type Records interface {
	storage.Backend
	Current(ctx context.Context) storage.Backend
}

// PayloadStore — запись содержимого файлов на диск.
type PayloadStore interface {
	SaveFile(reader io.Reader, originalName string) (*filestore.SaveResult, error)
	DeleteFile(pathOrName string) error
}

// ActivityRecorder — запись событий журнала активности.
type ActivityRecorder interface {
	Record(ctx context.Context, a *model.ActivityRecord)
}

// StatsSource — источник сводной статистики для push-уведомлений.
type StatsSource interface {
	DashboardStats(ctx context.Context) (*analytics.DashboardStats, error)
}

// UploadInput — один файл из multipart-запроса.
type UploadInput struct {
	// Name — имя файла, переданное клиентом
	Name string
	// MIMEType — заявленный тип содержимого
	MIMEType string
	// Size — заявленный размер (из заголовка части)
	Size int64
	// Content — содержимое
	Content io.Reader
}

// FileView — представление записи для API и push-уведомлений.
type FileView struct {
	*model.FileRecord
	// Size — размер в читаемом виде
	Size string `json:"size"`
}

// NewFileView создаёт представление записи.
func NewFileView(r *model.FileRecord) FileView {
	return FileView{FileRecord: r, Size: analytics.FormatSize(r.Size)}
}

// FileService — бизнес-логика работы с файлами.
type FileService struct {
	records     Records
	payloads    PayloadStore
	cache       *CacheService
	activity    ActivityRecorder
	stats       StatsSource
	publisher   Publisher
	maxFileSize int64
	logger      *slog.Logger
	now         func() time.Time
}

// NewFileService создаёт сервис файлов.
func NewFileService(
	records Records,
	payloads PayloadStore,
	cache *CacheService,
	activity ActivityRecorder,
	stats StatsSource,
	publisher Publisher,
	maxFileSize int64,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		records:     records,
		payloads:    payloads,
		cache:       cache,
		activity:    activity,
		stats:       stats,
		publisher:   orNoop(publisher),
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "file_service")),
		now:         time.Now,
	}
}

// ParseMetadata разбирает JSON-поле metadata формы загрузки.
// Пустая строка — пустые метаданные.
func ParseMetadata(raw string) (model.FileMetadata, error) {
	var md model.FileMetadata
	if strings.TrimSpace(raw) == "" {
		return md, nil
	}
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return md, fmt.Errorf("%w: некорректный JSON в поле metadata: %v", ErrValidation, err)
	}
	return md, nil
}

// Upload сохраняет файлы по одному. Первая ошибка прерывает обработку,
// уже сохранённые файлы остаются.
func (s *FileService) Upload(ctx context.Context, inputs []UploadInput, md model.FileMetadata) ([]*model.FileRecord, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: файлы не переданы", ErrValidation)
	}

	result := make([]*model.FileRecord, 0, len(inputs))
	for _, in := range inputs {
		rec, err := s.uploadOne(ctx, in, md)
		if err != nil {
			return result, err
		}
		result = append(result, rec)
	}
	return result, nil
}

// uploadOne проверяет, записывает и регистрирует один файл.
func (s *FileService) uploadOne(ctx context.Context, in UploadInput, md model.FileMetadata) (*model.FileRecord, error) {
	if !category.IsAllowed(in.MIMEType) {
		return nil, fmt.Errorf("%w: тип файла %q не поддерживается (%s)", ErrValidation, in.MIMEType, in.Name)
	}
	if in.Size > s.maxFileSize {
		return nil, fmt.Errorf("%w: файл %s превышает максимальный размер %s",
			ErrValidation, in.Name, analytics.FormatSize(s.maxFileSize))
	}

	started := s.now()

	saved, err := s.payloads.SaveFile(io.LimitReader(in.Content, s.maxFileSize+1), in.Name)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения файла %s: %w", in.Name, err)
	}
	if saved.Size > s.maxFileSize {
		if delErr := s.payloads.DeleteFile(saved.FullPath); delErr != nil {
			s.logger.Warn("Не удалось удалить файл сверх лимита",
				slog.String("path", saved.FullPath),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("%w: файл %s превышает максимальный размер %s",
			ErrValidation, in.Name, analytics.FormatSize(s.maxFileSize))
	}

	declared := category.Of(in.MIMEType)
	accuracy := float64(accuracyMismatch)
	if category.Of(mimetype.Detect(saved.Head).String()) == declared {
		accuracy = accuracyMatched
	}
	finished := s.now()

	if md.Category == "" {
		md.Category = string(declared)
	}
	if md.Tags == nil {
		md.Tags = []string{}
	}

	rec, err := s.records.Create(ctx, &model.FileRecord{
		OriginalName: filestore.SafeName(in.Name),
		StorageName:  saved.StorageName,
		StoragePath:  saved.FullPath,
		MIMEType:     in.MIMEType,
		Size:         saved.Size,
		Category:     declared,
		Metadata:     md,
		Stats: &model.FileStats{
			ProcessingTime: float64(finished.Sub(started).Microseconds()) / 1000,
			Accuracy:       accuracy,
			ProcessedAt:    finished.UTC(),
		},
		CreatedAt: finished.UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("ошибка регистрации файла %s: %w", in.Name, err)
	}

	s.logger.Info("Файл загружен",
		slog.String("file_id", rec.ID),
		slog.String("name", rec.OriginalName),
		slog.String("category", string(rec.Category)),
		slog.Int64("size", rec.Size),
	)

	fileID := rec.ID
	s.activity.Record(ctx, &model.ActivityRecord{
		FileID:       &fileID,
		Type:         model.ActivityUpload,
		FileName:     rec.OriginalName,
		FileSize:     rec.Size,
		FileCategory: string(rec.Category),
		Description:  fmt.Sprintf("Файл %q загружен", rec.OriginalName),
		Status:       model.ActivitySuccess,
	})
	s.publishChange(ctx, "upload", rec)
	return rec, nil
}

// List возвращает страницу записей с пагинацией.
func (s *FileService) List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, model.Pagination, error) {
	q = q.Normalize()
	if q.HasCategory() && !category.Valid(q.Category) {
		return nil, model.Pagination{}, fmt.Errorf("%w: неизвестная категория %q", ErrValidation, q.Category)
	}

	records, total, err := s.records.List(ctx, q)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("ошибка выборки файлов: %w", err)
	}
	return records, model.NewPagination(total, q.Page, q.Limit), nil
}

// Get возвращает активную запись. В режиме PostgreSQL используется кэш.
func (s *FileService) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	backend := s.records.Current(ctx)
	cacheable := backend.Mode() == storage.ModeDatabase

	if cacheable {
		if rec, ok := s.cache.Get(id); ok {
			return rec, nil
		}
	}

	rec, err := backend.Get(ctx, id)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if cacheable {
		s.cache.Set(id, rec)
	}
	return rec, nil
}

// Delete удаляет файл и его запись.
func (s *FileService) Delete(ctx context.Context, id string) (*model.FileRecord, error) {
	rec, err := s.records.Delete(ctx, id)
	if err != nil {
		return nil, mapStorageError(err)
	}
	s.cache.Delete(id)

	s.logger.Info("Файл удалён",
		slog.String("file_id", rec.ID),
		slog.String("name", rec.OriginalName),
	)

	fileID := rec.ID
	s.activity.Record(ctx, &model.ActivityRecord{
		FileID:       &fileID,
		Type:         model.ActivityDelete,
		FileName:     rec.OriginalName,
		FileSize:     rec.Size,
		FileCategory: string(rec.Category),
		Description:  fmt.Sprintf("Файл %q удалён", rec.OriginalName),
		Status:       model.ActivitySuccess,
	})
	s.publishChange(ctx, "delete", rec)
	return rec, nil
}

// Recent возвращает последние загруженные файлы (начальные данные push-клиента).
func (s *FileService) Recent(ctx context.Context, limit int) []*model.FileRecord {
	records, _, err := s.records.List(ctx, model.FileQuery{Page: 1, Limit: limit})
	if err != nil {
		s.logger.Warn("Ошибка выборки последних файлов", slog.String("error", err.Error()))
		return []*model.FileRecord{}
	}
	return records
}

// publishChange рассылает события об изменении файла и свежую статистику.
func (s *FileService) publishChange(ctx context.Context, action string, rec *model.FileRecord) {
	s.publisher.Publish(TopicUpdates, EventFileUpdated, map[string]any{
		"action": action,
		"file":   NewFileView(rec),
	})
	s.publisher.Publish(TopicActivity, EventActivityUpdated, map[string]any{
		"type":     action,
		"fileName": rec.OriginalName,
	})

	if s.stats == nil {
		return
	}
	stats, err := s.stats.DashboardStats(ctx)
	if err != nil {
		s.logger.Warn("Не удалось вычислить статистику для рассылки",
			slog.String("error", err.Error()),
		)
		return
	}
	s.publisher.Publish(TopicUpdates, EventStatsUpdate, stats)
}

// mapStorageError переводит ошибки хранилища в ошибки сервисного слоя.
func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
