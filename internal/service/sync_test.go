package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
)

func writeSidecar(t *testing.T, env *testEnv, name string) *model.FileMetadata {
	t.Helper()
	meta := &model.FileMetadata{
		UniqueID:    uuid.New(),
		FileName:    name,
		StoragePath: env.store.FullPath(name),
		UploadedAt:  time.Now().UTC(),
	}
	if _, err := env.sidecars.Write(meta); err != nil {
		t.Fatalf("ошибка записи sidecar: %v", err)
	}
	return meta
}

// TestSyncToStore_Idempotent проверяет: повторная отправка той же записи
// вставляет ровно одну строку.
func TestSyncToStore_Idempotent(t *testing.T) {
	env := newTestEnv(t, 1024)
	meta := writeSidecar(t, env, "a.pdf")
	rec := model.NewMetadataRecord(meta)

	first, err := env.syncer.SyncToStore(context.Background(), []model.MetadataRecord{rec})
	if err != nil {
		t.Fatalf("первая синхронизация: %v", err)
	}
	second, err := env.syncer.SyncToStore(context.Background(), []model.MetadataRecord{rec})
	if err != nil {
		t.Fatalf("вторая синхронизация: %v", err)
	}

	if first != 1 || second != 0 {
		t.Errorf("вставлено %d и %d, ожидалось 1 и 0", first, second)
	}
	if env.sink.count() != 1 {
		t.Errorf("строк в хранилище: %d", env.sink.count())
	}
}

// TestSyncDirectory_SkipsCachedAndMalformed проверяет кэш и пропуск
// некорректных sidecar-файлов.
func TestSyncDirectory_SkipsCachedAndMalformed(t *testing.T) {
	env := newTestEnv(t, 1024)
	writeSidecar(t, env, "a.pdf")
	writeSidecar(t, env, "b.pdf")

	if err := os.WriteFile(env.sidecars.Path("broken.pdf"), []byte("file_name=broken.pdf\n"), 0o640); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	inserted, err := env.syncer.SyncDirectory(context.Background())
	if err != nil {
		t.Fatalf("SyncDirectory: %v", err)
	}
	if inserted != 2 {
		t.Errorf("вставлено %d, ожидалось 2", inserted)
	}

	// Повторное сканирование не отправляет уже синхронизированные записи
	sentBefore := env.sink.sent
	inserted, err = env.syncer.SyncDirectory(context.Background())
	if err != nil {
		t.Fatalf("SyncDirectory: %v", err)
	}
	if inserted != 0 {
		t.Errorf("вставлено %d, ожидалось 0", inserted)
	}
	if env.sink.sent != sentBefore {
		t.Errorf("повторно отправлено %d записей", env.sink.sent-sentBefore)
	}

	// Новая запись отправляется одна
	writeSidecar(t, env, "c.pdf")
	inserted, err = env.syncer.SyncDirectory(context.Background())
	if err != nil {
		t.Fatalf("SyncDirectory: %v", err)
	}
	if inserted != 1 || env.sink.sent != sentBefore+1 {
		t.Errorf("вставлено %d, отправлено %d", inserted, env.sink.sent-sentBefore)
	}
}

// TestSyncDirectory_ForgetResends проверяет, что Forget снимает запись с кэша.
func TestSyncDirectory_ForgetResends(t *testing.T) {
	env := newTestEnv(t, 1024)
	meta := writeSidecar(t, env, "a.pdf")

	if _, err := env.syncer.SyncDirectory(context.Background()); err != nil {
		t.Fatalf("SyncDirectory: %v", err)
	}
	env.syncer.Forget(meta.UniqueID.String())

	sentBefore := env.sink.sent
	if _, err := env.syncer.SyncDirectory(context.Background()); err != nil {
		t.Fatalf("SyncDirectory: %v", err)
	}
	if env.sink.sent != sentBefore+1 {
		t.Errorf("после Forget запись должна быть отправлена повторно")
	}
}

// TestSyncService_Background проверяет фоновую синхронизацию по тикеру.
func TestSyncService_Background(t *testing.T) {
	env := newTestEnv(t, 1024)
	syncer := NewSyncService(env.sidecars, env.sink, 100, time.Hour, 20*time.Millisecond, testLogger())

	writeSidecar(t, env, "late.pdf")

	syncer.Start(context.Background())
	defer syncer.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for env.sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.sink.count() != 1 {
		t.Errorf("фоновая синхронизация не выполнена: %d строк", env.sink.count())
	}
}

// TestSyncService_DisabledInterval проверяет, что интервал 0 не запускает горутину.
func TestSyncService_DisabledInterval(t *testing.T) {
	env := newTestEnv(t, 1024)
	env.syncer.Start(context.Background())
	env.syncer.Stop()
}
