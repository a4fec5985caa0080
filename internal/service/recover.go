// recover.go — откат незавершённых загрузок при старте.
package service

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/Hootone-health/Hootone-RAG/internal/storage/filestore"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/sidecar"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/wal"
)

// MetadataCleaner удаляет строку metadata по unique_id.
// Возвращает количество удалённых строк.
type MetadataCleaner interface {
	DeleteByID(ctx context.Context, uniqueID string) (int64, error)
}

// RecoverUploads откатывает pending-транзакции WAL, оставшиеся после
// аварийного завершения. Для каждой записи удаляются временный файл,
// sidecar (если он принадлежит этой загрузке), файл хранилища (если
// sidecar принадлежит этой загрузке или отсутствует) и строка в БД.
// cleaner может быть nil. Вызывается до приёма запросов.
// Возвращает количество откаченных транзакций.
func RecoverUploads(
	ctx context.Context,
	walEngine *wal.WAL,
	cleaner MetadataCleaner,
	logger *slog.Logger,
) (int, error) {
	log := logger.With(slog.String("component", "recovery"))

	pending, err := walEngine.RecoverPending()
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, entry := range pending {
		log := log.With(
			slog.String("tx_id", entry.TransactionID),
			slog.String("file_name", entry.FileName),
		)

		if err := filestore.RemoveQuiet(entry.TempPath); err != nil {
			log.Warn("Не удалось удалить временный файл", slog.String("error", err.Error()))
		}

		owned, err := ownsArtifacts(entry)
		if err != nil {
			log.Warn("Не удалось прочитать sidecar, файлы оставлены", slog.String("error", err.Error()))
		}
		if owned {
			if err := filestore.RemoveQuiet(entry.StoragePath); err != nil {
				log.Warn("Не удалось удалить файл хранилища", slog.String("error", err.Error()))
			}
			if err := filestore.RemoveQuiet(entry.SidecarPath); err != nil {
				log.Warn("Не удалось удалить sidecar", slog.String("error", err.Error()))
			}
		}

		if cleaner != nil {
			deleted, err := cleaner.DeleteByID(ctx, entry.FileID)
			if err != nil {
				log.Warn("Не удалось удалить строку metadata", slog.String("error", err.Error()))
			} else if deleted > 0 {
				log.Info("Удалена строка metadata незавершённой загрузки")
			}
		}

		if err := walEngine.Rollback(entry.TransactionID); err != nil {
			log.Error("Ошибка отката WAL при восстановлении", slog.String("error", err.Error()))
			continue
		}
		recovered++
		log.Info("Незавершённая загрузка откачена", slog.Bool("files_removed", owned))
	}

	if _, err := walEngine.CleanCommitted(); err != nil {
		log.Warn("Ошибка очистки WAL", slog.String("error", err.Error()))
	}

	return recovered, nil
}

// ownsArtifacts определяет, принадлежат ли файл хранилища и sidecar
// незавершённой загрузке. Sidecar с другим unique_id означает, что имя
// занято ранее завершённой загрузкой, и её файлы трогать нельзя.
func ownsArtifacts(entry *wal.Entry) (bool, error) {
	rec, err := sidecar.Read(entry.SidecarPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return rec.UniqueID == entry.FileID, nil
}
