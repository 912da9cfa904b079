package model

import "time"

// ProcessingMetrics — усреднённая статистика обработки файлов.
type ProcessingMetrics struct {
	AverageProcessingTime float64 `json:"averageProcessingTime"`
	AverageAccuracy       float64 `json:"averageAccuracy"`
	TotalProcessed        int     `json:"totalProcessed"`
}

// AnalyticsSnapshot — сохранённый срез агрегатов на момент времени.
// Создаётся только по явному запросу и далее не изменяется.
type AnalyticsSnapshot struct {
	ID        string    `json:"analyticsId"`
	Timestamp time.Time `json:"timestamp"`

	TotalFiles int   `json:"totalFiles"`
	TotalSize  int64 `json:"totalSize"`
	// CategoryCounts и CategorySizes — ключи: категории, включая unknown
	CategoryCounts map[string]int   `json:"fileCount"`
	CategorySizes  map[string]int64 `json:"storageUsed"`

	Processing        ProcessingMetrics `json:"processingMetrics"`
	DailyUploads      int               `json:"dailyUploads"`
	StorageEfficiency int               `json:"storageEfficiency"`
	// PeakUploadTime — час с наибольшим числом загрузок ("14:00"), пусто если загрузок нет
	PeakUploadTime string `json:"peakUploadTime"`
}

// Pagination — параметры страницы в ответе API.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPagination вычисляет количество страниц: ceil(total / limit).
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}
