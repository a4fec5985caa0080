// Пакет server — HTTP-сервер шлюза загрузки PDF с TLS и graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Hootone-health/Hootone-RAG/internal/api/errors"
	"github.com/Hootone-health/Hootone-RAG/internal/api/generated"
	"github.com/Hootone-health/Hootone-RAG/internal/api/middleware"
	"github.com/Hootone-health/Hootone-RAG/internal/config"
)

// RouterOptions — общие для маршрутов зависимости.
type RouterOptions struct {
	// Bucket — ведро допуска для операций с security bearerAuth
	Bucket middleware.Admitter
	// Auth — JWT-аутентификация; nil отключает её
	Auth *middleware.JWTAuth
	// VerboseErrors — раскрывать текст ошибки в detail ответа 500
	VerboseErrors bool
	Logger        *slog.Logger
}

// NewRouter собирает chi-роутер: маршруты ServerInterface монтируются
// сгенерированным HandlerWithOptions, плюс GET /openapi.json.
//
// Операции с security bearerAuth (/rate-limit, /upload/pdf) проходят
// аутентификацию и проверку scope до контроля допуска, поэтому запросы
// без токена не расходуют место в ведре. Остальные операции открыты.
func NewRouter(api generated.ServerInterface, opts RouterOptions) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer(opts.Logger, opts.VerboseErrors))
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.MetricsMiddleware())

	router.Get("/openapi.json", openAPIDocument(opts.VerboseErrors))

	generated.HandlerWithOptions(api, generated.ChiServerOptions{
		BaseRouter:  router,
		Middlewares: []generated.MiddlewareFunc{bearerAuthOperations(opts)},
		// Единственная ошибка разбора параметров — повторённый X-File-Name
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, _ error) {
			apierrors.BadRequest(w, apierrors.MsgInvalidFileName)
		},
	})

	return router
}

// bearerAuthOperations оборачивает цепочкой auth → scope → admission только
// операции, для которых сгенерированный wrapper положил в контекст
// generated.BearerAuthScopes.
func bearerAuthOperations(opts RouterOptions) generated.MiddlewareFunc {
	var chain []func(http.Handler) http.Handler
	if opts.Auth != nil {
		chain = append(chain, opts.Auth.Middleware(), middleware.RequireScope(middleware.ScopeUpload))
	}
	chain = append(chain, middleware.Admission(opts.Bucket, opts.Logger))

	return func(next http.Handler) http.Handler {
		secured := next
		for i := len(chain) - 1; i >= 0; i-- {
			secured = chain[i](secured)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Value(generated.BearerAuthScopes).([]string); ok {
				secured.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// openAPIDocument отдаёт встроенный в generated OpenAPI-документ в JSON.
func openAPIDocument(verboseErrors bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		swagger, err := generated.GetSwagger()
		if err != nil {
			apierrors.InternalError(w, err, verboseErrors)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(swagger)
	}
}

// Server — HTTP-сервер шлюза.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с указанным обработчиком.
// ReadTimeout не задаётся: длительность чтения тела ограничивает
// обработчик загрузки (IG_UPLOAD_TIMEOUT).
func New(cfg *config.Config, logger *slog.Logger, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTPReadHeaderTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	if cfg.TLSEnabled() {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает отмены ctx (SIGINT, SIGTERM в main).
// После отмены выполняется graceful shutdown с IG_SHUTDOWN_TIMEOUT.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.Bool("tls", s.cfg.TLSEnabled()),
		)

		var err error
		if s.cfg.TLSEnabled() {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
