// recover.go — перехват паники в обработчиках.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/Hootone-health/Hootone-RAG/internal/api/errors"
)

// Recoverer превращает панику обработчика в ответ 500 единого формата.
// Стек пишется в лог; клиент получает detail по правилам verbose.
func Recoverer(logger *slog.Logger, verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				logger.Error("Паника в обработчике запроса",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.InternalError(w, err, verbose)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
