// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Hootone-health/Hootone-RAG/internal/api/generated"
	"github.com/Hootone-health/Hootone-RAG/internal/config"
)

// ReadinessChecker — проверка готовности внешней зависимости.
// Возвращает статус ("ok", "fail") и сообщение.
type ReadinessChecker interface {
	CheckReady() (status string, message string)
}

// HealthHandler реализует /health и /health/ready.
type HealthHandler struct {
	version string
	// dirs — директории, которые должны быть доступны на запись
	dirs map[string]string
	// db — проверка PostgreSQL (nil — не проверяется)
	db ReadinessChecker
}

// NewHealthHandler создаёт обработчик health endpoints.
// dirs: имя проверки → путь директории (storage, metadata, wal).
func NewHealthHandler(dirs map[string]string, db ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		dirs:    dirs,
		db:      db,
	}
}

// Health обрабатывает GET /health. Процесс жив — зависимости не проверяются.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, generated.HealthResponse{Status: "ok"})
}

// Ready обрабатывает GET /health/ready.
// Проверяет запись в директории хранилища, метаданных и WAL и ping PostgreSQL.
func (h *HealthHandler) Ready(w http.ResponseWriter, _ *http.Request) {
	resp := generated.ReadinessResponse{
		Status:    generated.ReadinessResponseStatusOk,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Version:   h.version,
		Service:   "ingest-gateway",
		Checks:    make(map[string]generated.ReadinessCheck, len(h.dirs)+1),
	}

	for name, dir := range h.dirs {
		resp.Checks[name] = checkWritable(dir)
	}
	if h.db != nil {
		status, message := h.db.CheckReady()
		resp.Checks["postgresql"] = generated.ReadinessCheck{
			Status:  generated.ReadinessCheckStatus(status),
			Message: &message,
		}
	}

	httpStatus := http.StatusOK
	for _, check := range resp.Checks {
		if check.Status != generated.ReadinessCheckStatusOk {
			resp.Status = generated.ReadinessResponseStatusFail
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, httpStatus, resp)
}

// checkWritable проверяет доступность директории на запись.
func checkWritable(dir string) generated.ReadinessCheck {
	testFile := filepath.Join(dir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		msg := "Директория недоступна для записи: " + err.Error()
		return generated.ReadinessCheck{Status: generated.ReadinessCheckStatusFail, Message: &msg}
	}
	_ = os.Remove(testFile)

	return generated.ReadinessCheck{Status: generated.ReadinessCheckStatusOk}
}
