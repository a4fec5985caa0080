package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
)

// insertIgnoreSQL — вставка строки metadata; конфликт по unique_id пропускается.
const insertIgnoreSQL = `INSERT INTO metadata (unique_id, uploaded_at, file_name, storage_path)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (unique_id) DO NOTHING`

// MetadataRepository — доступ к таблице metadata.
type MetadataRepository struct {
	db DBTX
	tx *TxRunner
}

// NewMetadataRepository создаёт репозиторий. tx может быть nil — тогда
// пакетная вставка выполняется без явной транзакции.
func NewMetadataRepository(db DBTX, tx *TxRunner) *MetadataRepository {
	return &MetadataRepository{db: db, tx: tx}
}

// InsertIgnore вставляет записи одним пакетом (pgx.Batch) внутри транзакции.
// Возвращает количество фактически вставленных строк; записи с уже
// существующим unique_id не считаются. При ошибке не вставляется ничего.
func (r *MetadataRepository) InsertIgnore(ctx context.Context, records []model.MetadataRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var inserted int
	run := func(db DBTX) error {
		n, err := sendInsertBatch(ctx, db, records)
		inserted = n
		return err
	}

	var err error
	if r.tx != nil {
		err = r.tx.RunInTx(ctx, func(tx pgx.Tx) error { return run(tx) })
	} else {
		err = run(r.db)
	}
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// sendInsertBatch отправляет пакет INSERT ... ON CONFLICT DO NOTHING.
func sendInsertBatch(ctx context.Context, db DBTX, records []model.MetadataRecord) (int, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertIgnoreSQL, rec.UniqueID, rec.UploadedAt.UTC(), rec.FileName, rec.StoragePath)
	}

	results := db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for _, rec := range records {
		tag, err := results.Exec()
		if err != nil {
			return 0, fmt.Errorf("ошибка вставки metadata %s: %w", rec.UniqueID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("ошибка завершения пакета: %w", err)
	}
	return inserted, nil
}

// DeleteByID удаляет запись по unique_id и возвращает количество удалённых строк.
func (r *MetadataRepository) DeleteByID(ctx context.Context, uniqueID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM metadata WHERE unique_id = $1`, uniqueID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления metadata %s: %w", uniqueID, err)
	}
	return tag.RowsAffected(), nil
}

// Count возвращает количество строк в таблице metadata.
func (r *MetadataRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM metadata`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта metadata: %w", err)
	}
	return n, nil
}
