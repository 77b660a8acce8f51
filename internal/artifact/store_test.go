package artifact

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	return db, dir
}

func TestStoreCreate(t *testing.T) {
	db, dir := setupTestDB(t)
	defer db.Close()

	store := NewStore(db, dir)
	content := []byte(`{"workspace_id": "demo"}`)
	rec, err := store.Create(CreateInput{
		RunUUID: "run-1",
		Kind:    KindProvisionResult,
		Label:   "demo",
		Content: content,
	})
	if err != nil {
		t.Fatalf("creating artifact: %v", err)
	}

	if rec.UUID == "" {
		t.Error("expected non-empty UUID")
	}
	if rec.ByteSize != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), rec.ByteSize)
	}
	if rec.CreatedBy != "local" {
		t.Errorf("expected default creator local, got %q", rec.CreatedBy)
	}

	h := sha256.Sum256(content)
	if rec.ContentHash != hex.EncodeToString(h[:]) {
		t.Errorf("unexpected hash %s", rec.ContentHash)
	}
	if _, err := os.Stat(filepath.Join(dir, "artifacts", rec.StoragePath)); err != nil {
		t.Errorf("expected artifact file on disk: %v", err)
	}
}

func TestStoreCreateJSONRoundTrip(t *testing.T) {
	db, dir := setupTestDB(t)
	defer db.Close()

	store := NewStore(db, dir)
	report := map[string]any{"bucket": "demo-bucket", "objects": 3}
	rec, err := store.CreateJSON("run-1", KindBucketReport, "demo-bucket", report)
	if err != nil {
		t.Fatalf("creating artifact: %v", err)
	}

	data, err := store.ReadContent(rec)
	if err != nil {
		t.Fatalf("reading content: %v", err)
	}
	if !strings.Contains(string(data), `"bucket": "demo-bucket"`) {
		t.Errorf("unexpected content %s", data)
	}
}

func TestStoreContentDedup(t *testing.T) {
	db, dir := setupTestDB(t)
	defer db.Close()

	store := NewStore(db, dir)
	content := []byte("same report")

	a, _ := store.Create(CreateInput{RunUUID: "run-1", Kind: KindRolePlan, Content: content})
	b, _ := store.Create(CreateInput{RunUUID: "run-2", Kind: KindRolePlan, Content: content})

	if a.UUID == b.UUID {
		t.Error("expected different UUIDs for deduped artifacts")
	}
	if a.StoragePath != b.StoragePath {
		t.Error("expected shared storage path")
	}
}

func TestStoreGet(t *testing.T) {
	db, dir := setupTestDB(t)
	defer db.Close()

	store := NewStore(db, dir)
	created, _ := store.Create(CreateInput{RunUUID: "run-1", Kind: KindTeardownReport, Label: "get-test", Content: []byte("x")})

	got, err := store.Get(created.UUID)
	if err != nil {
		t.Fatalf("get by UUID: %v", err)
	}
	if got.Label != "get-test" || got.Kind != KindTeardownReport || got.RunUUID != "run-1" {
		t.Errorf("unexpected record %+v", got)
	}

	got, err = store.Get(created.UUID[:8])
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if got.UUID != created.UUID {
		t.Error("prefix match returned wrong artifact")
	}

	_, err = store.Get("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	db, dir := setupTestDB(t)
	defer db.Close()

	store := NewStore(db, dir)
	store.Create(CreateInput{RunUUID: "run-1", Kind: KindRolePlan, Content: []byte("1")})
	store.Create(CreateInput{RunUUID: "run-1", Kind: KindRolePlan, Content: []byte("2")})
	store.Create(CreateInput{RunUUID: "run-2", Kind: KindRolePlan, Content: []byte("3")})

	all, err := store.List("")
	if err != nil {
		t.Fatalf("listing all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3, got %d", len(all))
	}

	filtered, err := store.List("run-1")
	if err != nil {
		t.Fatalf("listing filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 for run-1, got %d", len(filtered))
	}
}

func TestStoreVerifyIntegrity(t *testing.T) {
	db, dir := setupTestDB(t)
	defer db.Close()

	store := NewStore(db, dir)
	rec, _ := store.Create(CreateInput{RunUUID: "run-1", Kind: KindBucketReport, Content: []byte("integrity test")})

	valid, invalid, err := store.VerifyIntegrity()
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if valid != 1 || len(invalid) != 0 {
		t.Errorf("expected 1 valid, 0 invalid; got %d valid, %d invalid", valid, len(invalid))
	}

	os.WriteFile(filepath.Join(dir, "artifacts", rec.StoragePath), []byte("corrupted!"), 0600)

	valid, invalid, err = store.VerifyIntegrity()
	if err != nil {
		t.Fatalf("verify after corruption: %v", err)
	}
	if valid != 0 || len(invalid) != 1 {
		t.Errorf("expected 0 valid, 1 invalid; got %d valid, %d invalid", valid, len(invalid))
	}
	if _, err := store.ReadContent(rec); err == nil {
		t.Error("expected hash mismatch on read")
	}
}
