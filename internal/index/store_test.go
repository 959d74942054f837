package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "embeddings.json")
	return NewStore(path, logger.NewSlogLogger()), path
}

func testRecords() []domain.IndexRecord {
	return []domain.IndexRecord{
		{ProductID: "p1", Name: "red shoe", Category: "shoes", ImageRef: "img/p1.jpg", Price: 4999, Vector: []float32{1, 0}},
		{ProductID: "p2", Name: "blue mug", Category: "kitchen", ImageRef: "img/p2.jpg", Price: 1299, Vector: []float32{0, 1}},
	}
}

func TestPublishAndReload(t *testing.T) {
	store, path := newTestStore(t)

	idx := domain.NewIndex(1, "test-model", testRecords())
	idx.CreatedAt = time.Now().UTC()

	if err := store.Publish(idx); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	reopened := NewStore(path, logger.NewSlogLogger())
	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Version != 1 {
		t.Errorf("expected version 1, got %d", loaded.Version)
	}
	if loaded.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", loaded.Model)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", loaded.Len())
	}

	rec, ok := loaded.Record("p2")
	if !ok {
		t.Fatal("expected p2 in loaded index")
	}
	if rec.Name != "blue mug" || rec.Price != 1299 {
		t.Errorf("p2 metadata mismatch: %+v", rec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("missing file must load as empty index, got %v", err)
	}

	if loaded.Version != 0 || loaded.Len() != 0 {
		t.Errorf("expected empty version 0 index, got version=%d len=%d", loaded.Version, loaded.Len())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store, path := newTestStore(t)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(); !errors.Is(err, e.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestPublishRejectsStaleVersion(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Publish(domain.NewIndex(1, "test-model", testRecords())); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	err := store.Publish(domain.NewIndex(1, "test-model", testRecords()))
	if !errors.Is(err, e.ErrStaleIndexVersion) {
		t.Fatalf("expected ErrStaleIndexVersion, got %v", err)
	}

	if store.Snapshot().Version != 1 {
		t.Errorf("current index must stay at version 1, got %d", store.Snapshot().Version)
	}
}

func TestSnapshotUnaffectedByLaterPublish(t *testing.T) {
	store, _ := newTestStore(t)

	before := store.Snapshot()

	if err := store.Publish(domain.NewIndex(1, "test-model", testRecords())); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if before.Version != 0 || before.Len() != 0 {
		t.Errorf("earlier snapshot mutated: version=%d len=%d", before.Version, before.Len())
	}

	after := store.Snapshot()
	if after.Version != 1 || after.Len() != 2 {
		t.Errorf("expected fresh snapshot version 1 with 2 records, got version=%d len=%d", after.Version, after.Len())
	}
}

func TestPublishRejectsMixedDimensions(t *testing.T) {
	store, path := newTestStore(t)

	idx := domain.NewIndex(1, "test-model", []domain.IndexRecord{
		{ProductID: "p1", Vector: []float32{1, 0}},
		{ProductID: "p2", Vector: []float32{1, 0, 0}},
	})

	if err := store.Publish(idx); !errors.Is(err, e.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("rejected publish must not create the index file")
	}

	if store.Snapshot().Version != 0 {
		t.Errorf("current index must stay at version 0")
	}
}

func TestPublishLeavesNoTempFiles(t *testing.T) {
	store, path := newTestStore(t)

	if err := store.Publish(domain.NewIndex(1, "test-model", testRecords())); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 1 || entries[0].Name() != filepath.Base(path) {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("expected only the index file, got %v", names)
	}
}
