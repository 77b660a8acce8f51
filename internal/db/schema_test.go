package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenRunsDB(t *testing.T) {
	dir := t.TempDir()

	db, err := OpenRunsDB(dir)
	if err != nil {
		t.Fatalf("OpenRunsDB: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"runs", "artifacts"} {
		var name string
		err = db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("%s table not found: %v", table, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, RunsDBFile)); err != nil {
		t.Errorf("DB file not created: %v", err)
	}
}

func TestOpenRunsDBIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		db, err := OpenRunsDB(dir)
		if err != nil {
			t.Fatalf("OpenRunsDB attempt %d: %v", i+1, err)
		}
		db.Close()
	}
}

func TestOpenAuditDB(t *testing.T) {
	dir := t.TempDir()

	db, err := OpenAuditDB(dir)
	if err != nil {
		t.Fatalf("OpenAuditDB: %v", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='audit_log'",
	).Scan(&name)
	if err != nil {
		t.Error("audit_log table not found")
	}
}

func TestEnsureStateDir(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "nested", "state")

	if err := EnsureStateDir(statePath); err != nil {
		t.Fatalf("EnsureStateDir: %v", err)
	}
	info, err := os.Stat(statePath)
	if err != nil {
		t.Fatalf("expected directory %s: %v", statePath, err)
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", statePath)
	}
}
