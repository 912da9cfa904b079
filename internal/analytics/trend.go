package analytics

import (
	"time"

	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
)

// Периоды тренда.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
)

// TrendPoint — значение тренда за день.
type TrendPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// ParsePeriod возвращает нормализованный период и число дней.
// Неизвестное значение — 7d.
func ParsePeriod(period string) (string, int) {
	switch period {
	case Period30d:
		return Period30d, 30
	case Period90d:
		return Period90d, 90
	default:
		return Period7d, 7
	}
}

// TrendSeries строит ряд из N дневных точек, от старых к новым,
// последняя точка — текущая дата (UTC). Значение дня — totalFiles
// последнего снимка за этот день, 0 если снимков не было.
func TrendSeries(history []*model.AnalyticsSnapshot, period string, now time.Time) []TrendPoint {
	_, days := ParsePeriod(period)

	// Последний снимок за каждый день
	latest := make(map[string]*model.AnalyticsSnapshot, len(history))
	for _, s := range history {
		if s == nil {
			continue
		}
		key := dayKey(s.Timestamp)
		if cur, ok := latest[key]; !ok || s.Timestamp.After(cur.Timestamp) {
			latest[key] = s
		}
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	points := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := dayKey(today.AddDate(0, 0, -i))
		p := TrendPoint{Date: key}
		if s, ok := latest[key]; ok {
			p.Value = s.TotalFiles
		}
		points = append(points, p)
	}
	return points
}
