// sync.go — синхронизация sidecar-файлов с таблицей metadata в PostgreSQL.
//
// Каждая успешная загрузка вызывает SyncDirectory: директория метаданных
// сканируется целиком, записи отправляются в хранилище с политикой
// insert-or-ignore по unique_id. Повторная отправка безопасна.
//
// Записи, уже подтверждённые хранилищем, запоминаются в expirable LRU,
// чтобы каждый запрос не пересылал весь каталог. Фоновый тикер
// (IG_SYNC_INTERVAL) догоняет sidecar-файлы, записанные во время
// недоступности БД.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Hootone-health/Hootone-RAG/internal/api/middleware"
	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/sidecar"
)

// MetadataSink — внешнее хранилище метаданных с политикой insert-or-ignore.
// InsertIgnore возвращает количество фактически вставленных строк.
type MetadataSink interface {
	InsertIgnore(ctx context.Context, records []model.MetadataRecord) (int, error)
}

// SyncService — синхронизация директории метаданных с хранилищем.
type SyncService struct {
	sidecars *sidecar.Store
	sink     MetadataSink
	synced   *expirable.LRU[string, struct{}]
	interval time.Duration
	logger   *slog.Logger

	// mu сериализует сканирования: параллельные загрузки не отправляют
	// одни и те же записи одновременно.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncService создаёт сервис синхронизации.
// cacheSize и cacheTTL задают кэш unique_id, уже присутствующих в хранилище.
func NewSyncService(
	sidecars *sidecar.Store,
	sink MetadataSink,
	cacheSize int,
	cacheTTL time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		sidecars: sidecars,
		sink:     sink,
		synced:   expirable.NewLRU[string, struct{}](cacheSize, nil, cacheTTL),
		interval: interval,
		logger:   logger.With(slog.String("component", "metadata_sync")),
	}
}

// SyncToStore отправляет записи в хранилище и возвращает количество
// вставленных строк (конфликты по unique_id не считаются).
func (s *SyncService) SyncToStore(ctx context.Context, records []model.MetadataRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted, err := s.sink.InsertIgnore(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("ошибка синхронизации метаданных: %w", err)
	}

	for _, rec := range records {
		s.synced.Add(rec.UniqueID, struct{}{})
	}
	middleware.MetadataSyncInserted.Add(float64(inserted))

	return inserted, nil
}

// SyncDirectory сканирует директорию метаданных и отправляет в хранилище
// записи, отсутствующие в кэше. Некорректные sidecar-файлы пропускаются.
func (s *SyncService) SyncDirectory(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.sidecars.LoadAll(s.logger)
	if err != nil {
		return 0, err
	}

	pending := records[:0]
	for _, rec := range records {
		if s.synced.Contains(rec.UniqueID) {
			middleware.SyncCacheHits.Inc()
			continue
		}
		pending = append(pending, rec)
	}

	inserted, err := s.SyncToStore(ctx, pending)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Синхронизация метаданных выполнена",
		slog.Int("scanned", len(records)),
		slog.Int("sent", len(pending)),
		slog.Int("inserted", inserted),
	)
	return inserted, nil
}

// Forget удаляет unique_id из кэша (после отката загрузки).
func (s *SyncService) Forget(uniqueID string) {
	s.synced.Remove(uniqueID)
}

// Start запускает фоновую синхронизацию. Интервал 0 отключает её.
func (s *SyncService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Фоновая синхронизация метаданных отключена")
		return
	}

	syncCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(syncCtx)

	s.logger.Info("Фоновая синхронизация метаданных запущена",
		slog.String("interval", s.interval.String()),
	)
}

// Stop останавливает фоновую синхронизацию и дожидается выхода горутины.
func (s *SyncService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("Фоновая синхронизация метаданных остановлена")
}

// run — основной цикл фоновой горутины.
func (s *SyncService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SyncDirectory(ctx); err != nil {
				s.logger.Warn("Ошибка фоновой синхронизации метаданных",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
