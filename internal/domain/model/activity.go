package model

import "time"

// ActivityType — тип события журнала активности.
type ActivityType string

// Типы событий.
const (
	ActivityUpload   ActivityType = "upload"
	ActivityDelete   ActivityType = "delete"
	ActivityUpdate   ActivityType = "update"
	ActivityView     ActivityType = "view"
	ActivityDownload ActivityType = "download"
)

// ValidActivityType сообщает, является ли строка допустимым типом события.
func ValidActivityType(s string) bool {
	switch ActivityType(s) {
	case ActivityUpload, ActivityDelete, ActivityUpdate, ActivityView, ActivityDownload:
		return true
	}
	return false
}

// ActivityStatus — результат события.
type ActivityStatus string

// Статусы событий.
const (
	ActivitySuccess ActivityStatus = "success"
	ActivityFailed  ActivityStatus = "failed"
	ActivityPending ActivityStatus = "pending"
)

// ActivityRecord — неизменяемая запись журнала активности.
// Поля файла денормализованы и сохраняют историю после удаления файла.
type ActivityRecord struct {
	ID string `json:"activityId"`
	// FileID — мягкая ссылка на FileRecord (nil, если событие не связано с файлом)
	FileID       *string        `json:"fileId,omitempty"`
	Type         ActivityType   `json:"type"`
	FileName     string         `json:"fileName"`
	FileSize     int64          `json:"fileSize"`
	FileCategory string         `json:"fileCategory"`
	Description  string         `json:"description"`
	Status       ActivityStatus `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
}

// ActivityQuery — параметры выборки журнала активности.
type ActivityQuery struct {
	// Type — фильтр по типу события (пусто — все)
	Type  string
	Page  int
	Limit int
}

// Offset возвращает смещение первой записи страницы.
func (q ActivityQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Normalize приводит параметры пагинации к допустимым значениям.
func (q ActivityQuery) Normalize() ActivityQuery {
	q.Page, q.Limit = normalizePage(q.Page, q.Limit, DefaultActivityLimit)
	return q
}
