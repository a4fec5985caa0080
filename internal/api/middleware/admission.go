// admission.go — контроль допуска запросов через leaky bucket.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/Hootone-health/Hootone-RAG/internal/api/errors"
	"github.com/Hootone-health/Hootone-RAG/internal/ratelimit"
)

// Admitter — источник решений о допуске (реализуется *ratelimit.LeakyBucket).
// Admit возвращает решение вместе с состоянием ведра на момент решения.
type Admitter interface {
	Admit() (ratelimit.Decision, ratelimit.State)
}

type admissionKey struct{}

// Admission возвращает middleware, пропускающий запрос только при
// решении Admitted. Отклонённые запросы получают 503 Server is Busy
// до чтения тела; уровень ведра при отказе не меняется.
func Admission(bucket Admitter, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "admission"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, state := bucket.Admit()

			AdmissionTotal.WithLabelValues(decision.String()).Inc()
			BucketLevel.Set(state.Level)

			if decision != ratelimit.Admitted {
				log.Warn("Запрос отклонён: ведро заполнено",
					slog.String("path", r.URL.Path),
					slog.Float64("level", state.Level),
					slog.Int("capacity", state.Capacity),
				)
				apierrors.ServiceBusy(w)
				return
			}

			ctx := context.WithValue(r.Context(), admissionKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdmittedState возвращает состояние ведра сразу после допуска запроса.
func AdmittedState(ctx context.Context) (ratelimit.State, bool) {
	state, ok := ctx.Value(admissionKey{}).(ratelimit.State)
	return state, ok
}
