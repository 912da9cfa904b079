// Пакет model — доменные модели Dashboard Module.
// FileRecord — маппинг таблицы files; в деградированном режиме
// те же структуры собираются из содержимого директории загрузок.
package model

import (
	"time"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
)

// FileRecord — запись о загруженном файле.
type FileRecord struct {
	// ID — идентификатор файла (UUID; в деградированном режиме — имя файла на диске)
	ID string `json:"fileId"`
	// OriginalName — имя файла, переданное клиентом
	OriginalName string `json:"originalName"`
	// StorageName — сгенерированное уникальное имя файла на диске
	StorageName string `json:"filename"`
	// StoragePath — абсолютный путь к файлу
	StoragePath string `json:"-"`
	// MIMEType — заявленный MIME-тип
	MIMEType string `json:"mimeType"`
	// Size — размер в байтах
	Size int64 `json:"sizeBytes"`
	// Category — категория, вычисленная по MIME-типу
	Category category.Category `json:"category"`
	// Metadata — пользовательские метаданные
	Metadata FileMetadata `json:"metadata"`
	// Stats — статистика обработки (nil, если отсутствует)
	Stats *FileStats `json:"fileStats,omitempty"`
	// CreatedAt — время загрузки
	CreatedAt time.Time `json:"uploadedAt"`
	// IsDeleted — флаг мягкого удаления
	IsDeleted bool `json:"-"`
}

// FileMetadata — свободные метаданные файла из формы загрузки.
type FileMetadata struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Comments    string   `json:"comments"`
}

// FileStats — статистика обработки файла при загрузке.
type FileStats struct {
	// ProcessingTime — длительность обработки в миллисекундах
	ProcessingTime float64 `json:"processingTime"`
	// Accuracy — оценка точности классификации (0-100)
	Accuracy float64 `json:"accuracy"`
	// ProcessedAt — время завершения обработки
	ProcessedAt time.Time `json:"processedAt"`
}

// SortKey — ключ сортировки списка файлов.
type SortKey string

// Допустимые ключи сортировки.
const (
	SortNewest SortKey = "newest"
	SortOldest SortKey = "oldest"
	SortName   SortKey = "name"
	SortSize   SortKey = "size"
)

// ParseSortKey возвращает ключ сортировки; неизвестное значение — SortNewest.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortName, SortSize:
		return SortKey(s)
	default:
		return SortNewest
	}
}

// Значения пагинации по умолчанию.
const (
	DefaultFileLimit     = 12
	DefaultActivityLimit = 10
	MaxLimit             = 100
)

// FileQuery — параметры выборки списка файлов.
type FileQuery struct {
	// Category — точное совпадение категории; пусто или "all" — без фильтра
	Category string
	// Search — подстрока без учёта регистра
	Search string
	// Sort — ключ сортировки
	Sort SortKey
	// Page — номер страницы (с 1)
	Page int
	// Limit — размер страницы
	Limit int
}

// HasCategory сообщает, задан ли фильтр по категории.
func (q FileQuery) HasCategory() bool {
	return q.Category != "" && q.Category != category.All
}

// Offset возвращает смещение первой записи страницы.
func (q FileQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Normalize приводит параметры пагинации и сортировки к допустимым значениям.
func (q FileQuery) Normalize() FileQuery {
	q.Page, q.Limit = normalizePage(q.Page, q.Limit, DefaultFileLimit)
	q.Sort = ParseSortKey(string(q.Sort))
	return q
}

// normalizePage нормализует номер и размер страницы.
func normalizePage(page, limit, defaultLimit int) (pageVal, limitVal int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
