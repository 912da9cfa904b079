// Пакет dbstore — основной режим хранилища записей: метаданные в PostgreSQL,
// содержимое файлов в директории загрузок.
package dbstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/repository"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
)

// PayloadRemover — удаление содержимого файла с диска.
type PayloadRemover interface {
	DeleteFile(pathOrName string) error
}

// Store — Backend поверх репозитория файлов.
type Store struct {
	repo     repository.FileRepository
	payloads PayloadRemover
	logger   *slog.Logger
}

// New создаёт Store.
func New(repo repository.FileRepository, payloads PayloadRemover, logger *slog.Logger) *Store {
	return &Store{
		repo:     repo,
		payloads: payloads,
		logger:   logger.With(slog.String("component", "dbstore")),
	}
}

// Mode возвращает storage.ModeDatabase.
func (s *Store) Mode() storage.Mode {
	return storage.ModeDatabase
}

// List возвращает страницу активных записей.
func (s *Store) List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error) {
	return s.repo.List(ctx, q.Normalize())
}

// All возвращает все активные записи.
func (s *Store) All(ctx context.Context) ([]*model.FileRecord, error) {
	return s.repo.ListActive(ctx)
}

// Get возвращает активную запись; удалённая запись не находится.
func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return rec, nil
}

// Create сохраняет запись, присваивая UUID и время создания при их отсутствии.
func (s *Store) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	out := *rec
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete выполняет мягкое удаление: содержимое удаляется с диска
// (ошибка только логируется), затем запись помечается is_deleted.
func (s *Store) Delete(ctx context.Context, id string) (*model.FileRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	if err := s.payloads.DeleteFile(rec.StoragePath); err != nil {
		s.logger.Warn("Не удалось удалить файл с диска",
			slog.String("file_id", rec.ID),
			slog.String("path", rec.StoragePath),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repo.MarkDeleted(ctx, rec.ID); err != nil {
		return nil, mapError(err)
	}
	rec.IsDeleted = true
	return rec, nil
}

// mapError переводит ErrNotFound репозитория в storage.ErrNotFound.
func mapError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return storage.ErrNotFound
	}
	return err
}
