package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Hootone-health/Hootone-RAG/internal/config"
	"github.com/Hootone-health/Hootone-RAG/internal/database"
	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("ingest_test"),
		postgres.WithUsername("ingest"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("IG_DB_HOST", host)
	t.Setenv("IG_DB_PORT", port.Port())
	t.Setenv("IG_DB_NAME", "ingest_test")
	t.Setenv("IG_DB_USER", "ingest")
	t.Setenv("IG_DB_PASSWORD", "test-password")
	t.Setenv("IG_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка применения миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

func newRecord(name string) model.MetadataRecord {
	return model.MetadataRecord{
		UniqueID:    uuid.NewString(),
		FileName:    name,
		StoragePath: "/data/uploads/PDF/" + name,
		UploadedAt:  time.Date(2026, 3, 1, 12, 30, 0, 123000000, time.UTC),
	}
}

// TestInsertIgnore_Idempotent проверяет: повторная вставка той же записи
// не создаёт вторую строку и не считается вставленной.
func TestInsertIgnore_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMetadataRepository(pool, NewTxRunner(pool))
	ctx := context.Background()

	a, b := newRecord("a.pdf"), newRecord("b.pdf")

	n, err := repo.InsertIgnore(ctx, []model.MetadataRecord{a, b})
	if err != nil {
		t.Fatalf("InsertIgnore: %v", err)
	}
	if n != 2 {
		t.Errorf("вставлено %d, ожидалось 2", n)
	}

	n, err = repo.InsertIgnore(ctx, []model.MetadataRecord{a, b, newRecord("c.pdf")})
	if err != nil {
		t.Fatalf("повторный InsertIgnore: %v", err)
	}
	if n != 1 {
		t.Errorf("вставлено %d, ожидалась 1 (только c.pdf)", n)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("строк в таблице %d, ожидалось 3", count)
	}
}

// fetchRecord читает строку metadata напрямую; found=false — строки нет.
func fetchRecord(ctx context.Context, db DBTX, uniqueID string) (rec model.MetadataRecord, found bool, err error) {
	var uploadedAt time.Time
	err = db.QueryRow(ctx,
		`SELECT unique_id::text, uploaded_at, file_name, storage_path
		 FROM metadata WHERE unique_id = $1`, uniqueID,
	).Scan(&rec.UniqueID, &uploadedAt, &rec.FileName, &rec.StoragePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MetadataRecord{}, false, nil
	}
	if err != nil {
		return model.MetadataRecord{}, false, err
	}
	rec.UploadedAt = uploadedAt.UTC()
	return rec, true, nil
}

// TestInsertIgnore_StoredColumns проверяет значения колонок после вставки.
func TestInsertIgnore_StoredColumns(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMetadataRepository(pool, nil)
	ctx := context.Background()

	rec := newRecord("sample.pdf")
	if _, err := repo.InsertIgnore(ctx, []model.MetadataRecord{rec}); err != nil {
		t.Fatalf("InsertIgnore: %v", err)
	}

	got, found, err := fetchRecord(ctx, pool, rec.UniqueID)
	if err != nil || !found {
		t.Fatalf("fetchRecord: found=%v err=%v", found, err)
	}
	if got.FileName != rec.FileName || got.StoragePath != rec.StoragePath || got.UniqueID != rec.UniqueID {
		t.Errorf("запись не совпадает: %+v", got)
	}
	if !got.UploadedAt.Equal(rec.UploadedAt) {
		t.Errorf("uploaded_at: %v != %v", got.UploadedAt, rec.UploadedAt)
	}

	if _, found, err := fetchRecord(ctx, pool, uuid.NewString()); err != nil || found {
		t.Errorf("неизвестный unique_id: found=%v err=%v", found, err)
	}
}

// TestDeleteByID проверяет удаление строки.
func TestDeleteByID(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMetadataRepository(pool, NewTxRunner(pool))
	ctx := context.Background()

	rec := newRecord("d.pdf")
	if _, err := repo.InsertIgnore(ctx, []model.MetadataRecord{rec}); err != nil {
		t.Fatalf("InsertIgnore: %v", err)
	}

	n, err := repo.DeleteByID(ctx, rec.UniqueID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByID: n=%d err=%v", n, err)
	}
	n, err = repo.DeleteByID(ctx, rec.UniqueID)
	if err != nil || n != 0 {
		t.Fatalf("повторный DeleteByID: n=%d err=%v", n, err)
	}
}

// TestInsertIgnore_Empty проверяет пустой набор без обращения к БД.
func TestInsertIgnore_Empty(t *testing.T) {
	repo := NewMetadataRepository(nil, nil)
	n, err := repo.InsertIgnore(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("ожидалось 0, nil; получено %d, %v", n, err)
	}
}
