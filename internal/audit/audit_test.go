package audit

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupAuditDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "audit.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp     TEXT NOT NULL,
		chain         TEXT NOT NULL,
		run_uuid      TEXT DEFAULT '',
		operator      TEXT NOT NULL DEFAULT 'local',
		event_type    TEXT NOT NULL,
		detail        TEXT DEFAULT '{}',
		record_hash   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("creating table: %v", err)
	}

	return db
}

func TestLogAndVerify(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	logger, err := NewLogger(db, "default")
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}

	logger.Log(EventRunStarted, "local", "run-1", map[string]string{"operation": "workspace.create"})
	logger.Log(EventAPICall, "local", "run-1", map[string]string{"service": "IAM", "operation": "CreateRole"})
	logger.Log(EventRunFinished, "local", "run-1", map[string]string{"status": "succeeded"})

	valid, count, err := Verify(db, "default")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !valid {
		t.Error("expected valid chain")
	}
	if count != 3 {
		t.Errorf("expected 3 records, got %d", count)
	}
}

func TestChainTamperDetection(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	logger, err := NewLogger(db, "default")
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}

	logger.Log(EventAPICall, "local", "", map[string]string{"a": "1"})
	logger.Log(EventDeletion, "local", "", map[string]string{"b": "2"})
	logger.Log(EventAPICall, "local", "", map[string]string{"c": "3"})

	// Tamper with a record
	db.Exec("UPDATE audit_log SET detail = '{\"tampered\":true}' WHERE id = 2")

	valid, _, err := Verify(db, "default")
	if err == nil {
		t.Error("expected error from tampered chain")
	}
	if valid {
		t.Error("expected invalid chain after tampering")
	}
}

func TestEmptyChainIsValid(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	valid, count, err := Verify(db, "default")
	if err != nil {
		t.Fatalf("verify empty: %v", err)
	}
	if !valid {
		t.Error("expected empty chain to be valid")
	}
	if count != 0 {
		t.Errorf("expected 0 records, got %d", count)
	}
}

func TestNewLoggerRecoversPreviousHash(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	logger1, _ := NewLogger(db, "default")
	logger1.Log(EventAPICall, "local", "", map[string]string{"first": "event"})

	// Second logger simulates the next CLI invocation
	logger2, _ := NewLogger(db, "default")
	logger2.Log(EventRunStarted, "local", "", map[string]string{"second": "event"})

	valid, count, err := Verify(db, "default")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !valid {
		t.Error("expected valid chain after logger recovery")
	}
	if count != 2 {
		t.Errorf("expected 2 records, got %d", count)
	}
}

func TestChainsAreIndependent(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	a, _ := NewLogger(db, "prod")
	b, _ := NewLogger(db, "dev")
	a.Log(EventAPICall, "local", "", map[string]string{"n": "1"})
	b.Log(EventAPICall, "local", "", map[string]string{"n": "2"})
	a.Log(EventAPICall, "local", "", map[string]string{"n": "3"})

	for chain, want := range map[string]int{"prod": 2, "dev": 1} {
		valid, count, err := Verify(db, chain)
		if err != nil || !valid {
			t.Fatalf("chain %s: valid=%v err=%v", chain, valid, err)
		}
		if count != want {
			t.Errorf("chain %s: expected %d records, got %d", chain, want, count)
		}
	}
}

func TestSecretDetailIsRedacted(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	logger, _ := NewLogger(db, "default")
	logger.Log(EventConfigChanged, "local", "", map[string]string{
		"region":       "us-west-2",
		"sessiontoken": "FwoGZXIvYXdzEXAMPLE",
	})

	var detail string
	if err := db.QueryRow("SELECT detail FROM audit_log WHERE id = 1").Scan(&detail); err != nil {
		t.Fatalf("reading detail: %v", err)
	}
	if strings.Contains(detail, "FwoGZXIvYXdzEXAMPLE") {
		t.Errorf("session token leaked into audit detail: %s", detail)
	}
	if !strings.Contains(detail, "us-west-2") {
		t.Errorf("expected non-secret field preserved: %s", detail)
	}
}

func TestRunRecorder(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	logger, _ := NewLogger(db, "default")
	rec := logger.ForRun("run-42", "alice")
	rec.Record(EventStageReached, map[string]string{"stage": "buckets_provisioned"})

	var runUUID, operator, eventType string
	err := db.QueryRow("SELECT run_uuid, operator, event_type FROM audit_log WHERE id = 1").Scan(&runUUID, &operator, &eventType)
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	if runUUID != "run-42" || operator != "alice" || eventType != string(EventStageReached) {
		t.Errorf("unexpected record: run=%s operator=%s event=%s", runUUID, operator, eventType)
	}
}

func TestEntries(t *testing.T) {
	db := setupAuditDB(t)
	defer db.Close()

	a, _ := NewLogger(db, "prod")
	b, _ := NewLogger(db, "dev")
	a.Log(EventRunStarted, "alice", "run-1", map[string]string{"operation": "workspace.create"})
	b.Log(EventAPICall, "local", "", map[string]string{"n": "2"})
	a.Log(EventRunFinished, "alice", "run-1", map[string]string{"status": "success"})

	entries, err := Entries(db, "prod")
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].EventType != EventRunStarted || entries[1].EventType != EventRunFinished {
		t.Errorf("unexpected order: %s, %s", entries[0].EventType, entries[1].EventType)
	}
	if entries[0].RunUUID != "run-1" || entries[0].Operator != "alice" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if !strings.Contains(string(entries[0].Detail), `"workspace.create"`) {
		t.Errorf("expected detail preserved as JSON, got %s", entries[0].Detail)
	}
	if entries[0].RecordHash == "" || entries[0].RecordHash == entries[1].RecordHash {
		t.Error("expected distinct record hashes")
	}
}
