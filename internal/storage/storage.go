// Пакет storage — абстракция места хранения записей о файлах.
// Backend реализуется базой данных (dbstore) и сканированием директории
// загрузок (dirscan). Selector выбирает реализацию на каждый вызов
// по живой проверке доступности PostgreSQL.
package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// Mode — режим работы хранилища записей.
type Mode string

const (
	// ModeDatabase — записи хранятся в PostgreSQL.
	ModeDatabase Mode = "database"
	// ModeDegraded — PostgreSQL недоступен, записи восстанавливаются из директории.
	ModeDegraded Mode = "degraded"
)

// ErrNotFound — активная запись с указанным идентификатором не найдена.
var ErrNotFound = errors.New("файл не найден")

// Backend — источник записей о файлах.
type Backend interface {
	// List возвращает страницу записей и общее количество совпадений.
	List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error)
	// All возвращает все неудалённые записи (для агрегатов).
	All(ctx context.Context) ([]*model.FileRecord, error)
	// Get возвращает активную запись или ErrNotFound.
	Get(ctx context.Context, id string) (*model.FileRecord, error)
	// Create сохраняет запись и возвращает её с заполненным ID.
	Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error)
	// Delete удаляет запись и возвращает её состояние до удаления.
	Delete(ctx context.Context, id string) (*model.FileRecord, error)
	// Mode возвращает режим, которому соответствует реализация.
	Mode() Mode
}

// AvailabilityProbe — проверка доступности PostgreSQL.
// Реализация не кэширует результат.
type AvailabilityProbe interface {
	IsAvailable(ctx context.Context) bool
}

// Selector — Backend, который на каждый вызов делегирует в базу данных,
// если она доступна, и в сканирование директории в противном случае.
type Selector struct {
	database Backend
	degraded Backend
	probe    AvailabilityProbe
	logger   *slog.Logger

	mu       sync.Mutex
	lastMode Mode
}

// NewSelector создаёт Selector.
func NewSelector(database, degraded Backend, probe AvailabilityProbe, logger *slog.Logger) *Selector {
	return &Selector{
		database: database,
		degraded: degraded,
		probe:    probe,
		logger:   logger.With(slog.String("component", "storage_selector")),
	}
}

// Current возвращает реализацию для текущего вызова.
func (s *Selector) Current(ctx context.Context) Backend {
	b := s.degraded
	if s.probe.IsAvailable(ctx) {
		b = s.database
	}
	s.noteMode(b.Mode())
	return b
}

// IsAvailable сообщает, доступен ли PostgreSQL в данный момент.
func (s *Selector) IsAvailable(ctx context.Context) bool {
	return s.probe.IsAvailable(ctx)
}

// List делегирует в текущую реализацию.
func (s *Selector) List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error) {
	return s.Current(ctx).List(ctx, q)
}

// All делегирует в текущую реализацию.
func (s *Selector) All(ctx context.Context) ([]*model.FileRecord, error) {
	return s.Current(ctx).All(ctx)
}

// Get делегирует в текущую реализацию.
func (s *Selector) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	return s.Current(ctx).Get(ctx, id)
}

// Create делегирует в текущую реализацию.
func (s *Selector) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	return s.Current(ctx).Create(ctx, rec)
}

// Delete делегирует в текущую реализацию.
func (s *Selector) Delete(ctx context.Context, id string) (*model.FileRecord, error) {
	return s.Current(ctx).Delete(ctx, id)
}

// Mode выполняет проверку доступности и возвращает режим.
func (s *Selector) Mode() Mode {
	return s.Current(context.Background()).Mode()
}

// noteMode логирует смену режима.
func (s *Selector) noteMode(mode Mode) {
	s.mu.Lock()
	prev := s.lastMode
	s.lastMode = mode
	s.mu.Unlock()

	if prev == mode {
		return
	}
	if mode == ModeDegraded {
		s.logger.Warn("PostgreSQL недоступен, переход в деградированный режим",
			slog.String("previous", string(prev)),
		)
		return
	}
	s.logger.Info("Режим хранения",
		slog.String("mode", string(mode)),
		slog.String("previous", string(prev)),
	)
}
