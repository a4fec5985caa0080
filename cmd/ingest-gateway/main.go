// Точка входа шлюза загрузки PDF.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Hootone-health/Hootone-RAG/internal/api/handlers"
	"github.com/Hootone-health/Hootone-RAG/internal/api/middleware"
	"github.com/Hootone-health/Hootone-RAG/internal/config"
	"github.com/Hootone-health/Hootone-RAG/internal/database"
	"github.com/Hootone-health/Hootone-RAG/internal/ratelimit"
	"github.com/Hootone-health/Hootone-RAG/internal/repository"
	"github.com/Hootone-health/Hootone-RAG/internal/server"
	"github.com/Hootone-health/Hootone-RAG/internal/service"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/filestore"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/sidecar"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/wal"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Шлюз загрузки PDF запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Int("bucket_capacity", cfg.BucketCapacity),
		slog.Float64("bucket_leak_rate", cfg.BucketLeakRate),
		slog.Int64("max_upload_size", cfg.MaxUploadSize),
		slog.Bool("auth", cfg.AuthEnabled()),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("Шлюз остановлен с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Шлюз остановлен")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Инициализация хранилищ ---

	// 1. Файловое хранилище, sidecar-метаданные, WAL
	store, err := filestore.New(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("инициализация FileStore: %w", err)
	}
	sidecars, err := sidecar.New(cfg.MetadataDir)
	if err != nil {
		return fmt.Errorf("инициализация sidecar: %w", err)
	}
	walEngine, err := wal.New(cfg.WALDir, logger)
	if err != nil {
		return fmt.Errorf("инициализация WAL: %w", err)
	}

	// 2. PostgreSQL: миграции, пул, репозиторий
	if err := database.Migrate(cfg, logger); err != nil {
		return err
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.NewMetadataRepository(pool, repository.NewTxRunner(pool))
	sqlDB := database.OpenDB(pool)
	defer sqlDB.Close()

	// 3. Откат незавершённых загрузок до приёма запросов
	recovered, err := service.RecoverUploads(ctx, walEngine, repo, logger)
	if err != nil {
		return fmt.Errorf("восстановление WAL: %w", err)
	}
	if recovered > 0 {
		logger.Warn("Незавершённые загрузки откачены", slog.Int("count", recovered))
	}

	// --- Сервисы ---

	syncer := service.NewSyncService(sidecars, repo, cfg.SyncCacheSize, cfg.SyncCacheTTL, cfg.SyncInterval, logger)

	// Первичная синхронизация: sidecar-файлы, записанные при недоступной БД
	if inserted, syncErr := syncer.SyncDirectory(ctx); syncErr != nil {
		logger.Warn("Первичная синхронизация metadata не выполнена", slog.String("error", syncErr.Error()))
	} else {
		attrs := []any{slog.Int("inserted", inserted)}
		if total, countErr := repo.Count(ctx); countErr == nil {
			attrs = append(attrs, slog.Int64("total_rows", total))
		}
		logger.Info("Первичная синхронизация metadata", attrs...)
	}
	syncer.Start(ctx)
	defer syncer.Stop()

	uploads := service.NewUploadService(
		service.DefaultConstraints(cfg.MaxUploadSize),
		walEngine, store, sidecars, syncer, repo, logger,
	)

	bucket, err := ratelimit.New(ratelimit.Config{
		Capacity: cfg.BucketCapacity,
		LeakRate: cfg.BucketLeakRate,
	})
	if err != nil {
		return fmt.Errorf("инициализация ведра допуска: %w", err)
	}

	// topologymetrics — мониторинг PostgreSQL и JWKS
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     cfg.ServiceID,
		Group:         cfg.DephealthGroup,
		DB:            sqlDB,
		PGConnURL:     "postgres://" + net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort)) + "/" + cfg.DBName,
		JWKSURL:       cfg.JWKSUrl,
		TLSSkipVerify: cfg.TLSSkipVerify,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		defer dephealthSvc.Stop()
	}

	// JWT-аутентификация включается заданием IG_JWKS_URL
	var jwtAuth *middleware.JWTAuth
	if cfg.AuthEnabled() {
		jwtAuth, err = middleware.NewJWTAuth(middleware.JWTAuthConfig{
			JWKSURL:         cfg.JWKSUrl,
			CACertPath:      cfg.JWKSCACert,
			TLSSkipVerify:   cfg.TLSSkipVerify,
			ClientTimeout:   cfg.JWKSClientTimeout,
			RefreshInterval: cfg.JWKSRefreshInterval,
			JWTLeeway:       cfg.JWTLeeway,
		}, logger)
		if err != nil {
			return fmt.Errorf("инициализация JWT: %w", err)
		}
		logger.Info("JWT аутентификация настроена", slog.String("jwks_url", cfg.JWKSUrl))
	} else {
		logger.Warn("IG_JWKS_URL не задан, аутентификация отключена")
	}

	// --- HTTP ---

	apiHandler := handlers.NewAPIHandler(
		handlers.NewHealthHandler(map[string]string{
			"storage":  store.Dir(),
			"metadata": sidecars.Dir(),
			"wal":      walEngine.Dir(),
		}, database.NewReadinessChecker(pool)),
		handlers.NewRateLimitHandler(bucket),
		handlers.NewUploadHandler(uploads, cfg.MaxUploadSizeMB(), cfg.UploadTimeout, cfg.VerboseErrors, logger),
	)

	router := server.NewRouter(apiHandler, server.RouterOptions{
		Bucket:        bucket,
		Auth:          jwtAuth,
		VerboseErrors: cfg.VerboseErrors,
		Logger:        logger,
	})

	return server.New(cfg, logger, router).Run(ctx)
}
