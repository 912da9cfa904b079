// Пакет dirscan — деградированный режим хранилища записей.
// Записи о файлах восстанавливаются из содержимого директории загрузок:
// идентификатор — имя файла на диске, MIME-тип — по расширению,
// при неизвестном расширении — по содержимому.
package dirscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/filestore"
)

// defaultMIMEType — тип содержимого, если не удалось определить ни по расширению, ни по данным.
const defaultMIMEType = "application/octet-stream"

// Store — Backend поверх директории загрузок.
type Store struct {
	files  *filestore.FileStore
	logger *slog.Logger
}

// New создаёт Store.
func New(files *filestore.FileStore, logger *slog.Logger) *Store {
	return &Store{
		files:  files,
		logger: logger.With(slog.String("component", "dirscan")),
	}
}

// Mode возвращает storage.ModeDegraded.
func (s *Store) Mode() storage.Mode {
	return storage.ModeDegraded
}

// List фильтрует, сортирует и разбивает на страницы записи директории в памяти.
func (s *Store) List(_ context.Context, q model.FileQuery) ([]*model.FileRecord, int, error) {
	q = q.Normalize()

	all, err := s.scan()
	if err != nil {
		return nil, 0, err
	}

	filtered := filter(all, q)
	sortRecords(filtered, q.Sort)

	total := len(filtered)
	start := q.Offset()
	if start >= total {
		return []*model.FileRecord{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

// All возвращает записи обо всех файлах директории.
func (s *Store) All(_ context.Context) ([]*model.FileRecord, error) {
	return s.scan()
}

// Get ищет файл по точному совпадению имени.
func (s *Store) Get(_ context.Context, id string) (*model.FileRecord, error) {
	e, err := s.files.Find(id)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска файла: %w", err)
	}
	return s.toRecord(e), nil
}

// Create не сохраняет метаданные: запись получает случайный UUID,
// а сам файл уже записан в директорию загрузок.
func (s *Store) Create(_ context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	out := *rec
	out.ID = uuid.NewString()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	s.logger.Debug("Запись не сохранена: деградированный режим",
		slog.String("storage_name", rec.StorageName),
	)
	return &out, nil
}

// Delete удаляет файл с диска по точному совпадению имени.
// Ошибка удаления возвращается вызывающему.
func (s *Store) Delete(ctx context.Context, id string) (*model.FileRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.files.DeleteFile(rec.StoragePath); err != nil {
		return nil, err
	}
	rec.IsDeleted = true
	return rec, nil
}

// scan строит записи по содержимому директории.
func (s *Store) scan() ([]*model.FileRecord, error) {
	entries, err := s.files.List()
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования директории загрузок: %w", err)
	}
	result := make([]*model.FileRecord, 0, len(entries))
	for _, e := range entries {
		result = append(result, s.toRecord(e))
	}
	return result, nil
}

// toRecord восстанавливает запись по файлу на диске.
func (s *Store) toRecord(e filestore.Entry) *model.FileRecord {
	original := filestore.OriginalName(e.Name)
	mimeType := s.detectMIME(e)
	return &model.FileRecord{
		ID:           e.Name,
		OriginalName: original,
		StorageName:  e.Name,
		StoragePath:  e.FullPath,
		MIMEType:     mimeType,
		Size:         e.Size,
		Category:     category.Of(mimeType),
		CreatedAt:    e.ModTime.UTC(),
	}
}

// detectMIME определяет MIME-тип по расширению, затем по содержимому.
func (s *Store) detectMIME(e filestore.Entry) string {
	if mimeType, ok := category.ByExtension(filepath.Ext(e.Name)); ok {
		return mimeType
	}
	m, err := mimetype.DetectFile(e.FullPath)
	if err != nil {
		s.logger.Debug("Не удалось определить тип содержимого",
			slog.String("file", e.Name),
			slog.String("error", err.Error()),
		)
		return defaultMIMEType
	}
	mimeType, _, _ := strings.Cut(m.String(), ";")
	return mimeType
}

// filter применяет фильтры категории и поиска.
func filter(records []*model.FileRecord, q model.FileQuery) []*model.FileRecord {
	search := strings.ToLower(q.Search)
	result := make([]*model.FileRecord, 0, len(records))
	for _, r := range records {
		if q.HasCategory() && string(r.Category) != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.OriginalName), search) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// sortRecords сортирует записи по ключу; сортировка стабильная.
func sortRecords(records []*model.FileRecord, key model.SortKey) {
	var less func(a, b *model.FileRecord) bool
	switch key {
	case model.SortOldest:
		less = func(a, b *model.FileRecord) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case model.SortName:
		less = func(a, b *model.FileRecord) bool { return a.OriginalName < b.OriginalName }
	case model.SortSize:
		less = func(a, b *model.FileRecord) bool { return a.Size > b.Size }
	default:
		less = func(a, b *model.FileRecord) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
