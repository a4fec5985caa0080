package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/wal"
)

// startCrashedUpload имитирует загрузку, прерванную после записи
// файла и sidecar, но до коммита WAL.
func startCrashedUpload(t *testing.T, env *testEnv, name string) *wal.Entry {
	t.Helper()

	id := uuid.New()
	tmp := env.store.TempPath(name)
	entry, err := env.wal.StartTransaction(wal.OpUpload, id.String(), name, wal.Paths{
		TempPath:    tmp,
		StoragePath: env.store.FullPath(name),
		SidecarPath: env.sidecars.Path(name),
	})
	if err != nil {
		t.Fatalf("StartTransaction: %v", err)
	}

	if err := os.WriteFile(tmp, []byte("%PDF-partial"), 0o640); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	if err := os.WriteFile(env.store.FullPath(name), samplePDF, 0o640); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	meta := &model.FileMetadata{
		UniqueID: id, FileName: name,
		StoragePath: env.store.FullPath(name), UploadedAt: time.Now().UTC(),
	}
	if _, err := env.sidecars.Write(meta); err != nil {
		t.Fatalf("sidecar: %v", err)
	}
	if _, err := env.sink.InsertIgnore(context.Background(), []model.MetadataRecord{model.NewMetadataRecord(meta)}); err != nil {
		t.Fatalf("sink: %v", err)
	}
	return entry
}

func TestRecoverUploads_RemovesOwnedArtifacts(t *testing.T) {
	env := newTestEnv(t, 1024)
	entry := startCrashedUpload(t, env, "crash.pdf")

	recovered, err := RecoverUploads(context.Background(), env.wal, env.sink, testLogger())
	if err != nil {
		t.Fatalf("RecoverUploads: %v", err)
	}
	if recovered != 1 {
		t.Errorf("откачено %d, ожидалась 1", recovered)
	}

	assertNothingStored(t, env, "crash.pdf")
	if _, err := os.Stat(entry.TempPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("временный файл не удалён")
	}
	if env.sink.count() != 0 {
		t.Errorf("строка metadata не удалена: %d", env.sink.count())
	}

	// Завершённые записи очищены
	if _, err := env.wal.GetTransaction(entry.TransactionID); err == nil {
		t.Error("WAL-запись должна быть удалена после восстановления")
	}
}

func TestRecoverUploads_KeepsForeignFiles(t *testing.T) {
	env := newTestEnv(t, 1024)

	// Завершённая загрузка занимает имя
	if _, err := env.uploads.Upload(context.Background(), uploadParams("taken.pdf", samplePDF)); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Незавершённая транзакция на то же имя (гонка проверки дубликата)
	if _, err := env.wal.StartTransaction(wal.OpUpload, uuid.NewString(), "taken.pdf", wal.Paths{
		TempPath:    env.store.TempPath("taken.pdf"),
		StoragePath: env.store.FullPath("taken.pdf"),
		SidecarPath: env.sidecars.Path("taken.pdf"),
	}); err != nil {
		t.Fatalf("StartTransaction: %v", err)
	}

	if _, err := RecoverUploads(context.Background(), env.wal, nil, testLogger()); err != nil {
		t.Fatalf("RecoverUploads: %v", err)
	}

	if ok, _ := env.store.Exists("taken.pdf"); !ok {
		t.Error("файл завершённой загрузки удалён")
	}
	if _, err := os.Stat(env.sidecars.Path("taken.pdf")); err != nil {
		t.Errorf("sidecar завершённой загрузки удалён: %v", err)
	}
	if env.sink.count() != 1 {
		t.Errorf("строка завершённой загрузки должна остаться: %d", env.sink.count())
	}
}

func TestRecoverUploads_NothingPending(t *testing.T) {
	env := newTestEnv(t, 1024)

	recovered, err := RecoverUploads(context.Background(), env.wal, env.sink, testLogger())
	if err != nil {
		t.Fatalf("RecoverUploads: %v", err)
	}
	if recovered != 0 {
		t.Errorf("откачено %d, ожидалось 0", recovered)
	}
}
