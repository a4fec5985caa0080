// metrics.go — Prometheus метрики шлюза загрузки PDF.
// HTTP-метрики: ig_http_requests_total, ig_http_request_duration_seconds.
// Бизнес-метрики экспортируются и обновляются из middleware допуска
// и сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ig_http_requests_total",
			Help: "Общее количество HTTP-запросов к шлюзу",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ig_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к шлюзу в секундах",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики
var (
	// AdmissionTotal — решения контроля допуска (admitted / rejected).
	AdmissionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ig_admission_total",
			Help: "Количество решений контроля допуска",
		},
		[]string{"decision"},
	)

	// BucketLevel — уровень ведра после последнего решения.
	BucketLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ig_bucket_level",
			Help: "Текущий уровень ведра допуска",
		},
	)

	// UploadsTotal — завершённые загрузки по результату
	// (success, too_large, invalid_signature, duplicate, ...).
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ig_uploads_total",
			Help: "Количество загрузок PDF по результату",
		},
		[]string{"result"},
	)

	// UploadBytes — объём принятых файлов.
	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ig_upload_bytes",
			Help: "Суммарный объём принятых PDF в байтах",
		},
	)

	// MetadataSyncInserted — строки, вставленные в PostgreSQL при синхронизации.
	MetadataSyncInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ig_metadata_sync_inserted_total",
			Help: "Количество строк metadata, вставленных при синхронизации",
		},
	)

	// SyncCacheHits — записи, пропущенные благодаря кэшу синхронизированных unique_id.
	SyncCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ig_sync_cache_hits_total",
			Help: "Количество записей, пропущенных по кэшу синхронизации",
		},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath ограничивает кардинальность лейбла path известными маршрутами.
func normalizePath(path string) string {
	switch path {
	case "/health", "/health/ready", "/rate-limit", "/upload/pdf", "/metrics", "/openapi.json":
		return path
	default:
		return "other"
	}
}
