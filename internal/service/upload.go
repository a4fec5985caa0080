// Пакет service — бизнес-логика шлюза загрузки PDF.
// upload.go — приём одного PDF с WAL-транзакцией.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Hootone-health/Hootone-RAG/internal/api/middleware"
	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/filestore"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/sidecar"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/wal"
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Body — поток данных файла (тело запроса)
	Body io.Reader
	// FileName — имя из заголовка X-File-Name
	FileName string
	// ContentType — объявленный Content-Type (может быть пустым)
	ContentType string
	// DeclaredLength — объявленный Content-Length, -1 если неизвестен
	DeclaredLength int64
	// UploadedBy — sub из JWT (пусто без аутентификации)
	UploadedBy string
	// Deadline — крайний срок чтения тела; нулевое значение — без ограничения
	Deadline time.Time
}

// UploadResult — результат успешной загрузки.
type UploadResult struct {
	Metadata *model.FileMetadata
	// Size — количество принятых байт
	Size int64
	// Checksum — SHA-256 содержимого
	Checksum string
	// RowsInserted — строк, вставленных в metadata при синхронизации
	RowsInserted int
}

// UploadService — сервис загрузки файлов.
type UploadService struct {
	constraints Constraints
	walEngine   *wal.WAL
	store       *filestore.FileStore
	sidecars    *sidecar.Store
	syncer      *SyncService
	cleaner     MetadataCleaner
	now         func() time.Time
	logger      *slog.Logger
}

// NewUploadService создаёт сервис загрузки файлов.
// cleaner удаляет строку metadata при откате; nil — откат только файлов.
func NewUploadService(
	constraints Constraints,
	walEngine *wal.WAL,
	store *filestore.FileStore,
	sidecars *sidecar.Store,
	syncer *SyncService,
	cleaner MetadataCleaner,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		constraints: constraints,
		walEngine:   walEngine,
		store:       store,
		sidecars:    sidecars,
		syncer:      syncer,
		cleaner:     cleaner,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "upload_service")),
	}
}

// Constraints возвращает ограничения загрузки.
func (s *UploadService) Constraints() Constraints {
	return s.constraints
}

// Upload принимает один PDF.
//
// Поток:
//  1. Проверка имени, расширения, Content-Type, объявленной длины, дубликата
//  2. WAL StartTransaction (пути временного файла, файла и sidecar)
//  3. SaveStream (предел размера, сигнатура %PDF, SHA-256)
//  4. Запись sidecar-файла
//  5. Синхронизация директории метаданных с PostgreSQL
//  6. WAL Commit
//
// При ошибке после шага 2 — удаление файла и sidecar, WAL Rollback.
// Либо существуют файл, sidecar и строка в БД, либо ничего из этого.
func (s *UploadService) Upload(ctx context.Context, params UploadParams) (*UploadResult, error) {
	if err := s.validate(params); err != nil {
		s.countResult(err)
		return nil, err
	}

	uniqueID := uuid.New()
	tmpPath := s.store.TempPath(params.FileName)

	walEntry, err := s.walEngine.StartTransaction(wal.OpUpload, uniqueID.String(), params.FileName, wal.Paths{
		TempPath:    tmpPath,
		StoragePath: s.store.FullPath(params.FileName),
		SidecarPath: s.sidecars.Path(params.FileName),
	})
	if err != nil {
		s.countResult(err)
		return nil, err
	}

	var (
		saved        *filestore.SaveResult
		sidecarSaved bool
	)
	rollback := func(cause error) (*UploadResult, error) {
		if saved != nil {
			if err := s.store.DeleteFile(params.FileName); err != nil {
				s.logger.Error("Ошибка удаления файла при откате", slog.String("error", err.Error()))
			}
		}
		if sidecarSaved {
			if err := s.sidecars.Delete(params.FileName); err != nil {
				s.logger.Error("Ошибка удаления sidecar при откате", slog.String("error", err.Error()))
			}
			s.syncer.Forget(uniqueID.String())
			// Строку могли вставить частичный батч или фоновая синхронизация
			if s.cleaner != nil {
				if _, err := s.cleaner.DeleteByID(context.WithoutCancel(ctx), uniqueID.String()); err != nil {
					s.logger.Error("Ошибка удаления строки metadata при откате",
						slog.String("unique_id", uniqueID.String()),
						slog.String("error", err.Error()),
					)
				}
			}
		}
		if err := s.walEngine.Rollback(walEntry.TransactionID); err != nil {
			s.logger.Error("Ошибка отката WAL",
				slog.String("tx_id", walEntry.TransactionID),
				slog.String("error", err.Error()),
			)
		}
		s.countResult(cause)
		return nil, cause
	}

	streamCtx := ctx
	if !params.Deadline.IsZero() {
		var cancel context.CancelFunc
		streamCtx, cancel = context.WithDeadline(ctx, params.Deadline)
		defer cancel()
	}

	saved, err = s.store.SaveStream(streamCtx, params.Body, params.FileName, tmpPath, s.constraints.MaxSizeBytes)
	if err != nil {
		return rollback(classifyStreamError(err))
	}

	meta := &model.FileMetadata{
		UniqueID:    uniqueID,
		FileName:    params.FileName,
		StoragePath: saved.FullPath,
		UploadedAt:  s.now().UTC(),
	}

	if _, err := s.sidecars.Write(meta); err != nil {
		return rollback(err)
	}
	sidecarSaved = true

	inserted, err := s.syncer.SyncDirectory(ctx)
	if err != nil {
		return rollback(err)
	}

	if err := s.walEngine.Commit(walEntry.TransactionID); err != nil {
		// Файл, sidecar и строка уже записаны, коммит WAL — best effort
		s.logger.Error("Ошибка коммита WAL (данные сохранены)",
			slog.String("tx_id", walEntry.TransactionID),
			slog.String("error", err.Error()),
		)
	}

	middleware.UploadsTotal.WithLabelValues("success").Inc()
	middleware.UploadBytes.Add(float64(saved.Size))

	s.logger.Info("Файл загружен",
		slog.String("unique_id", uniqueID.String()),
		slog.String("file_name", params.FileName),
		slog.Int64("size", saved.Size),
		slog.String("checksum", saved.Checksum),
		slog.String("uploaded_by", params.UploadedBy),
		slog.Int("db_rows_inserted", inserted),
	)

	return &UploadResult{
		Metadata:     meta,
		Size:         saved.Size,
		Checksum:     saved.Checksum,
		RowsInserted: inserted,
	}, nil
}

// validate выполняет проверки до чтения тела, до первой ошибки.
func (s *UploadService) validate(params UploadParams) error {
	if err := ValidateFileName(params.FileName); err != nil {
		return err
	}
	if err := s.constraints.ValidateNameAndType(params.FileName, params.ContentType); err != nil {
		return err
	}
	if err := s.constraints.ValidateDeclaredLength(params.DeclaredLength); err != nil {
		return err
	}
	return CheckDuplicate(s.store, params.FileName)
}

// classifyStreamError переводит ошибки файлового хранилища в ошибки сервиса.
func classifyStreamError(err error) error {
	switch {
	case errors.Is(err, filestore.ErrTooLarge):
		return fmt.Errorf("%w: %w", ErrTooLarge, err)
	case errors.Is(err, filestore.ErrInvalidSignature):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrUploadTimeout, err)
	default:
		return err
	}
}

// countResult обновляет ig_uploads_total для неуспешной загрузки.
func (s *UploadService) countResult(err error) {
	middleware.UploadsTotal.WithLabelValues(ResultLabel(err)).Inc()
}

// ResultLabel возвращает значение лейбла result для ошибки загрузки.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMissingFileName), errors.Is(err, ErrInvalidFileName):
		return "bad_request"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrUploadTimeout):
		return "timeout"
	default:
		return "error"
	}
}
