// metrics.go — Prometheus HTTP метрики Task Tracker API.
// Регистрирует метрики: tasktracker_http_requests_total, tasktracker_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_http_requests_total",
			Help: "Общее количество HTTP-запросов к Task Tracker API",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasktracker_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Task Tracker API в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			normalizedPath := normalizePath(r.URL.Path)

			sr := newStatusRecorder(w)
			next.ServeHTTP(sr, r)

			status := strconv.Itoa(sr.status)
			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

// resourcePrefixes — коллекции REST API.
var resourcePrefixes = []string{"/projects/", "/tasks/", "/users/", "/roles/"}

// normalizePath заменяет числовые идентификаторы на {id}, а неизвестные
// пути сводит к "other" для ограничения кардинальности.
// /projects/42 → /projects/{id}
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics", "/openapi.yaml",
		"/auth/provider", "/auth/google", "/auth/me":
		return path
	}

	for _, prefix := range resourcePrefixes {
		if path == prefix || path == strings.TrimSuffix(prefix, "/") {
			return prefix
		}
		if rest, ok := strings.CutPrefix(path, prefix); ok {
			if _, err := strconv.ParseInt(rest, 10, 64); err == nil {
				return prefix + "{id}"
			}
		}
	}
	return "other"
}
