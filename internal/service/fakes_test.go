package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/filestore"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/sidecar"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/wal"
)

// memorySink — хранилище метаданных в памяти с семантикой insert-or-ignore.
type memorySink struct {
	mu    sync.Mutex
	rows  map[string]model.MetadataRecord
	calls int
	sent  int
	err   error
	// failAfterInsert — вставить записи и всё равно вернуть ошибку
	failAfterInsert error
}

func newMemorySink() *memorySink {
	return &memorySink{rows: make(map[string]model.MetadataRecord)}
}

func (m *memorySink) InsertIgnore(_ context.Context, records []model.MetadataRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	inserted := 0
	for _, rec := range records {
		m.sent++
		if _, ok := m.rows[rec.UniqueID]; ok {
			continue
		}
		m.rows[rec.UniqueID] = rec
		inserted++
	}
	if m.failAfterInsert != nil {
		return inserted, m.failAfterInsert
	}
	return inserted, nil
}

func (m *memorySink) DeleteByID(_ context.Context, uniqueID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[uniqueID]; !ok {
		return 0, nil
	}
	delete(m.rows, uniqueID)
	return 1, nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memorySink) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv — собранный сервис загрузки на временных директориях.
type testEnv struct {
	store    *filestore.FileStore
	sidecars *sidecar.Store
	wal      *wal.WAL
	sink     *memorySink
	syncer   *SyncService
	uploads  *UploadService
}

func newTestEnv(t *testing.T, maxSize int64) *testEnv {
	t.Helper()
	root := t.TempDir()

	store, err := filestore.New(root + "/PDF")
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}
	sidecars, err := sidecar.New(root + "/Metadata")
	if err != nil {
		t.Fatalf("sidecar: %v", err)
	}
	walEngine, err := wal.New(root+"/wal", testLogger())
	if err != nil {
		t.Fatalf("wal: %v", err)
	}

	sink := newMemorySink()
	syncer := NewSyncService(sidecars, sink, 100, time.Hour, 0, testLogger())
	uploads := NewUploadService(DefaultConstraints(maxSize), walEngine, store, sidecars, syncer, sink, testLogger())

	return &testEnv{
		store:    store,
		sidecars: sidecars,
		wal:      walEngine,
		sink:     sink,
		syncer:   syncer,
		uploads:  uploads,
	}
}
