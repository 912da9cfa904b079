// Пакет analytics — агрегаты по записям о файлах.
// Чистые функции: одинаково работают над записями из PostgreSQL
// и над записями, восстановленными из директории загрузок.
package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/category"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// SystemStatusReady — статус системы в метриках производительности.
const SystemStatusReady = "Ready"

// DashboardStats — сводка для главной панели.
type DashboardStats struct {
	TotalFiles       int              `json:"totalFiles"`
	TotalSize        int64            `json:"totalSize"`
	StorageFormatted string           `json:"storageFormatted"`
	FileCount        map[string]int   `json:"fileCount"`
	StorageUsed      map[string]int64 `json:"storageUsed"`
	Efficiency       int              `json:"efficiency"`
	Timestamp        time.Time        `json:"timestamp"`
}

// BreakdownItem — доля категории в занятом месте.
type BreakdownItem struct {
	Category   string `json:"category"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	Count      int    `json:"count"`
	SizeBytes  int64  `json:"sizeBytes"`
	Size       string `json:"size"`
	Percentage int    `json:"percentage"`
}

// DistributionItem — доля категории в количестве файлов.
type DistributionItem struct {
	Type       string  `json:"type"`
	Category   string  `json:"category"`
	Color      string  `json:"color"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Performance — метрики производительности обработки.
type Performance struct {
	ProcessingSpeed        float64 `json:"processingSpeed"`
	CategorizationAccuracy float64 `json:"categorizationAccuracy"`
	StorageEfficiency      int     `json:"storageEfficiency"`
	SystemStatus           string  `json:"systemStatus"`
	TotalProcessed         int     `json:"totalProcessed"`
}

// StorageEfficiency — условная эффективность хранения: 50 для пустого хранилища, иначе 95.
func StorageEfficiency(totalSize int64) int {
	eff := 50
	if totalSize > 0 {
		eff += 45
	}
	return min(95, eff)
}

// FormatSize форматирует размер в байтах (IEC: KiB, MiB, ...).
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// totals — счётчики по всем категориям, включая unknown.
type totals struct {
	files  int
	size   int64
	counts map[string]int
	sizes  map[string]int64
}

// tally подсчитывает количество и размер по категориям.
// Ключи присутствуют для всех восьми категорий.
func tally(records []*model.FileRecord) totals {
	t := totals{
		counts: make(map[string]int, 8),
		sizes:  make(map[string]int64, 8),
	}
	for _, c := range append(category.Categories(), category.Unknown) {
		t.counts[string(c)] = 0
		t.sizes[string(c)] = 0
	}
	for _, r := range records {
		if r.IsDeleted {
			continue
		}
		key := string(r.Category)
		if !category.Valid(key) {
			key = string(category.Unknown)
		}
		t.files++
		t.size += r.Size
		t.counts[key]++
		t.sizes[key] += r.Size
	}
	return t
}

// Dashboard вычисляет сводку. Суммы по категориям равны итогам.
func Dashboard(records []*model.FileRecord, now time.Time) DashboardStats {
	t := tally(records)
	return DashboardStats{
		TotalFiles:       t.files,
		TotalSize:        t.size,
		StorageFormatted: FormatSize(t.size),
		FileCount:        t.counts,
		StorageUsed:      t.sizes,
		Efficiency:       StorageEfficiency(t.size),
		Timestamp:        now.UTC(),
	}
}

// StorageBreakdown возвращает семь категорий в фиксированном порядке.
// Процент — доля размера от суммы семи категорий, округлённая до целого.
func StorageBreakdown(records []*model.FileRecord) []BreakdownItem {
	t := tally(records)

	var sum int64
	for _, c := range category.Categories() {
		sum += t.sizes[string(c)]
	}

	result := make([]BreakdownItem, 0, 7)
	for _, c := range category.Categories() {
		d := category.DisplayOf(c)
		size := t.sizes[string(c)]
		pct := 0
		if sum > 0 {
			pct = int(math.Round(float64(size) / float64(sum) * 100))
		}
		result = append(result, BreakdownItem{
			Category:   string(c),
			Name:       d.Name,
			Icon:       d.Icon,
			Color:      d.Color,
			Count:      t.counts[string(c)],
			SizeBytes:  size,
			Size:       FormatSize(size),
			Percentage: pct,
		})
	}
	return result
}

// Distribution возвращает доли семи категорий по количеству файлов.
func Distribution(records []*model.FileRecord) []DistributionItem {
	t := tally(records)

	sum := 0
	for _, c := range category.Categories() {
		sum += t.counts[string(c)]
	}

	result := make([]DistributionItem, 0, 7)
	for _, c := range category.Categories() {
		d := category.DisplayOf(c)
		count := t.counts[string(c)]
		var pct float64
		if sum > 0 {
			pct = float64(count) / float64(sum) * 100
		}
		result = append(result, DistributionItem{
			Type:       string(c),
			Category:   d.ShortName,
			Color:      d.Color,
			Count:      count,
			Percentage: pct,
		})
	}
	return result
}

// Processing усредняет статистику обработки по записям, у которых она есть.
// TotalProcessed — количество всех записей.
func Processing(records []*model.FileRecord) model.ProcessingMetrics {
	m := model.ProcessingMetrics{}
	var (
		withStats     int
		sumTime, sumA float64
	)
	for _, r := range records {
		if r.IsDeleted {
			continue
		}
		m.TotalProcessed++
		if r.Stats == nil {
			continue
		}
		withStats++
		sumTime += r.Stats.ProcessingTime
		sumA += r.Stats.Accuracy
	}
	if withStats > 0 {
		m.AverageProcessingTime = sumTime / float64(withStats)
		m.AverageAccuracy = sumA / float64(withStats)
	}
	return m
}

// PerformanceOf вычисляет метрики производительности:
// скорость = max(0, 100 - среднее время / 2), 0 при отсутствии статистики.
func PerformanceOf(records []*model.FileRecord) Performance {
	pm := Processing(records)
	speed := 0.0
	if pm.AverageProcessingTime > 0 {
		speed = math.Max(0, 100-pm.AverageProcessingTime/2)
	}
	return Performance{
		ProcessingSpeed:        speed,
		CategorizationAccuracy: pm.AverageAccuracy,
		StorageEfficiency:      StorageEfficiency(tally(records).size),
		SystemStatus:           SystemStatusReady,
		TotalProcessed:         pm.TotalProcessed,
	}
}

// NewSnapshot строит снимок агрегатов на момент now.
// Идентификатор присваивается при сохранении.
func NewSnapshot(records []*model.FileRecord, now time.Time) *model.AnalyticsSnapshot {
	t := tally(records)
	now = now.UTC()
	today := dayKey(now)

	daily := 0
	var hours [24]int
	for _, r := range records {
		if r.IsDeleted {
			continue
		}
		created := r.CreatedAt.UTC()
		if dayKey(created) == today {
			daily++
		}
		hours[created.Hour()]++
	}

	return &model.AnalyticsSnapshot{
		Timestamp:         now,
		TotalFiles:        t.files,
		TotalSize:         t.size,
		CategoryCounts:    t.counts,
		CategorySizes:     t.sizes,
		Processing:        Processing(records),
		DailyUploads:      daily,
		StorageEfficiency: StorageEfficiency(t.size),
		PeakUploadTime:    peakHour(hours),
	}
}

// peakHour возвращает час с наибольшим числом загрузок в формате "HH:00".
// При равенстве — более ранний час; пусто, если загрузок нет.
func peakHour(hours [24]int) string {
	best, bestCount := -1, 0
	for h, n := range hours {
		if n > bestCount {
			best, bestCount = h, n
		}
	}
	if best < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:00", best)
}

// dayKey — дата в формате YYYY-MM-DD (UTC).
func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
