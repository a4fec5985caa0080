// Пакет wal — файловый журнал упреждающей записи для загрузок PDF.
// Каждая загрузка фиксируется отдельным файлом {tx_id}.wal.json в IG_WAL_DIR
// до начала записи на диск. Незавершённые записи при старте указывают,
// какие временные файлы, файлы хранилища и sidecar-файлы нужно удалить.
package wal

import (
	"time"
)

// OperationType — тип операции, записываемой в журнал.
type OperationType string

// OpUpload — приём одного PDF: временный файл → файл хранилища → sidecar → синхронизация.
const OpUpload OperationType = "upload"

// TransactionStatus — статус транзакции.
type TransactionStatus string

const (
	// StatusPending — загрузка начата и ещё не завершена
	StatusPending TransactionStatus = "pending"
	// StatusCommitted — загрузка полностью зафиксирована
	StatusCommitted TransactionStatus = "committed"
	// StatusRolledBack — загрузка отменена, артефакты удалены
	StatusRolledBack TransactionStatus = "rolled_back"
)

// Paths — пути артефактов загрузки, которые могут остаться на диске
// при аварийном завершении.
type Paths struct {
	// TempPath — временный файл потоковой записи
	TempPath string `json:"temp_path"`
	// StoragePath — итоговый файл в хранилище
	StoragePath string `json:"storage_path"`
	// SidecarPath — файл метаданных
	SidecarPath string `json:"sidecar_path"`
}

// Entry — запись журнала. Хранится как JSON-файл {tx_id}.wal.json.
type Entry struct {
	TransactionID string            `json:"transaction_id"`
	Operation     OperationType     `json:"operation"`
	Status        TransactionStatus `json:"status"`

	// FileID — unique_id загрузки
	FileID string `json:"file_id"`
	// FileName — имя загружаемого файла
	FileName string `json:"file_name"`

	Paths

	StartedAt time.Time `json:"started_at"`
	// CompletedAt — nil для pending транзакций
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// walFileName возвращает имя файла журнала для транзакции.
func walFileName(txID string) string {
	return txID + walSuffix
}

const walSuffix = ".wal.json"
