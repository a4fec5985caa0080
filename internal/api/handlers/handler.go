// handler.go — APIHandler реализует generated.ServerInterface,
// делегируя вызовы обработчикам по endpoint'ам.
package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hootone-health/Hootone-RAG/internal/api/generated"
)

// APIHandler — реализация ServerInterface шлюза.
type APIHandler struct {
	health    *HealthHandler
	rateLimit *RateLimitHandler
	upload    *UploadHandler
	metrics   http.Handler
}

// NewAPIHandler собирает обработчики в одну реализацию ServerInterface.
func NewAPIHandler(health *HealthHandler, rateLimit *RateLimitHandler, upload *UploadHandler) *APIHandler {
	return &APIHandler{
		health:    health,
		rateLimit: rateLimit,
		upload:    upload,
		metrics:   promhttp.Handler(),
	}
}

// --- System ---

func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.Health(w, r)
}

func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.Ready(w, r)
}

func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// --- Upload ---

func (h *APIHandler) GetRateLimit(w http.ResponseWriter, r *http.Request) {
	h.rateLimit.Status(w, r)
}

func (h *APIHandler) UploadPdf(w http.ResponseWriter, r *http.Request, params generated.UploadPdfParams) {
	h.upload.UploadPDF(w, r, params)
}

var _ generated.ServerInterface = (*APIHandler)(nil)
