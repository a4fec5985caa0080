// ratelimit.go — GET /rate-limit: состояние ведра допуска.
package handlers

import (
	"net/http"

	"github.com/Hootone-health/Hootone-RAG/internal/api/generated"
	"github.com/Hootone-health/Hootone-RAG/internal/api/middleware"
	"github.com/Hootone-health/Hootone-RAG/internal/ratelimit"
)

// StateProvider — источник состояния ведра.
type StateProvider interface {
	State() ratelimit.State
}

// RateLimitHandler — обработчик GET /rate-limit.
// Запрос проходит через middleware допуска и расходует одно место в ведре.
type RateLimitHandler struct {
	bucket StateProvider
}

// NewRateLimitHandler создаёт обработчик состояния ведра.
func NewRateLimitHandler(bucket StateProvider) *RateLimitHandler {
	return &RateLimitHandler{bucket: bucket}
}

// Status обрабатывает GET /rate-limit.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	state, ok := middleware.AdmittedState(r.Context())
	if !ok {
		state = h.bucket.State()
	}

	writeJSON(w, http.StatusOK, generated.RateLimitStatus{
		Allowed:        true,
		StatusCode:     http.StatusOK,
		BucketCapacity: state.Capacity,
		BucketLeakRate: state.LeakRate,
		BucketLevel:    state.Level,
	})
}
