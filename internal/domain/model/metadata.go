// Пакет model — доменные модели шлюза загрузки PDF.
// FileMetadata — метаданные принятого файла, создаются один раз после
// полной записи и проверки потока и далее не изменяются.
// MetadataRecord — плоская проекция для записи во внешнее хранилище.
package model

import (
	"time"

	"github.com/google/uuid"
)

// FileMetadata — метаданные загруженного файла. Соответствует содержимому
// sidecar-файла в директории метаданных.
type FileMetadata struct {
	// UniqueID — идентификатор загрузки (UUID v4), ключ идентичности
	UniqueID uuid.UUID

	// FileName — оригинальное имя файла, с учётом регистра
	FileName string

	// StoragePath — абсолютный путь сохранённого файла
	StoragePath string

	// UploadedAt — время фиксации загрузки (UTC)
	UploadedAt time.Time
}

// MetadataRecord — запись для таблицы metadata внешнего хранилища.
// Строится из FileMetadata или из разобранного sidecar-файла.
type MetadataRecord struct {
	UniqueID    string
	FileName    string
	StoragePath string
	UploadedAt  time.Time
}

// NewMetadataRecord строит MetadataRecord из FileMetadata.
func NewMetadataRecord(m *FileMetadata) MetadataRecord {
	return MetadataRecord{
		UniqueID:    m.UniqueID.String(),
		FileName:    m.FileName,
		StoragePath: m.StoragePath,
		UploadedAt:  m.UploadedAt.UTC(),
	}
}
