// metrics.go — Prometheus HTTP метрики Dashboard Module.
// Регистрирует метрики: dm_http_requests_total, dm_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики Dashboard Module
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dm_http_requests_total",
			Help: "Общее количество HTTP-запросов к Dashboard Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Dashboard Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// knownPaths — статические пути, попадающие в метки как есть.
var knownPaths = map[string]bool{
	"/health/live":                     true,
	"/health/ready":                    true,
	"/metrics":                         true,
	"/ws":                              true,
	"/api/files":                       true,
	"/api/files/upload":                true,
	"/api/analytics/dashboard-stats":   true,
	"/api/analytics/storage-breakdown": true,
	"/api/analytics/distribution":      true,
	"/api/analytics/trend-data":        true,
	"/api/analytics/performance":       true,
	"/api/analytics/snapshot":          true,
	"/api/activities":                  true,
	"/api/activities/stats":            true,
	"/api/activities/clear":            true,
	"/api/auth/signup":                 true,
	"/api/auth/login":                  true,
	"/api/auth/profile":                true,
	"/api/maintenance/reconcile":       true,
}

// normalizePath заменяет идентификатор файла на {id}, неизвестные пути — на "other".
// /api/files/a1b2c3d4-... → /api/files/{id}
// /api/files/1700000000000-abc-report.pdf → /api/files/{id}
func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}

	const filesPrefix = "/api/files/"
	if rest, ok := strings.CutPrefix(path, filesPrefix); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/files/{id}"
	}

	return "other"
}
