// Package audit provides the append-only audit log of every remote call and
// every provisioning or teardown stage. Records form a hash chain for tamper
// detection.
package audit

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/twinprov/twinprov/internal/logging"
)

// EventType categorizes audit log entries.
type EventType string

const (
	EventAPICall        EventType = "api_call"
	EventRunStarted     EventType = "run_started"
	EventStageReached   EventType = "stage_reached"
	EventRetry          EventType = "retry"
	EventDeletion       EventType = "deletion"
	EventDeletionDry    EventType = "deletion_dry_run"
	EventSkipped        EventType = "skipped"
	EventRunFinished    EventType = "run_finished"
	EventConfigChanged  EventType = "config_changed"
	EventScopeViolation EventType = "scope_violation"
)

// Logger writes tamper-evident audit records to the audit database.
type Logger struct {
	db       *sql.DB
	mu       sync.Mutex
	lastHash string
	chain    string
}

// NewLogger creates an audit logger appending to the named chain. One chain is
// kept per AWS profile so records from different accounts do not interleave.
func NewLogger(db *sql.DB, chain string) (*Logger, error) {
	al := &Logger{
		db:    db,
		chain: chain,
	}

	// Recover last hash for chain continuity
	var lastHash sql.NullString
	err := db.QueryRow(
		"SELECT record_hash FROM audit_log WHERE chain = ? ORDER BY id DESC LIMIT 1",
		chain,
	).Scan(&lastHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("recovering audit chain: %w", err)
	}
	if lastHash.Valid {
		al.lastHash = lastHash.String
	}

	return al, nil
}

// Log writes an audit event. The record is appended immutably with a hash chain.
// String values under secret-looking keys are redacted before they are stored.
func (al *Logger) Log(eventType EventType, operator, runUUID string, detail any) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	detailJSON, err := json.Marshal(redact(detail))
	if err != nil {
		detailJSON = []byte(fmt.Sprintf(`{"error":"failed to marshal detail: %s"}`, err))
	}

	now := time.Now().UTC()
	recordHash := al.computeHash(now, eventType, operator, string(detailJSON))

	_, err = al.db.Exec(
		`INSERT INTO audit_log (timestamp, chain, run_uuid, operator, event_type, detail, record_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		now.Format(time.RFC3339Nano),
		al.chain,
		runUUID,
		operator,
		string(eventType),
		string(detailJSON),
		recordHash,
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}

	al.lastHash = recordHash
	return nil
}

func redact(detail any) any {
	m, ok := detail.(map[string]string)
	if !ok {
		return detail
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if logging.IsSecretField(k) {
			v = logging.RedactValue(v)
		}
		out[k] = v
	}
	return out
}

// computeHash creates the hash chain link: SHA-256(previousHash + timestamp + eventType + operator + detail)
func (al *Logger) computeHash(ts time.Time, eventType EventType, operator, detail string) string {
	data := al.lastHash + ts.Format(time.RFC3339Nano) + string(eventType) + operator + detail
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

// Verify checks the integrity of an audit chain.
func Verify(db *sql.DB, chain string) (bool, int, error) {
	rows, err := db.Query(
		"SELECT timestamp, event_type, operator, detail, record_hash FROM audit_log WHERE chain = ? ORDER BY id ASC",
		chain,
	)
	if err != nil {
		return false, 0, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var previousHash string
	count := 0

	for rows.Next() {
		var ts, eventType, operator, detail, recordHash string
		if err := rows.Scan(&ts, &eventType, &operator, &detail, &recordHash); err != nil {
			return false, count, fmt.Errorf("scanning audit row: %w", err)
		}

		data := previousHash + ts + eventType + operator + detail
		h := sha256.Sum256([]byte(data))
		expected := hex.EncodeToString(h[:])

		if expected != recordHash {
			return false, count, fmt.Errorf("audit chain broken at record %d", count+1)
		}

		previousHash = recordHash
		count++
	}

	return true, count, rows.Err()
}

// Entry is one stored audit record.
type Entry struct {
	ID         int64           `json:"id"`
	Timestamp  string          `json:"timestamp"`
	RunUUID    string          `json:"run_uuid,omitempty"`
	Operator   string          `json:"operator"`
	EventType  EventType       `json:"event_type"`
	Detail     json.RawMessage `json:"detail"`
	RecordHash string          `json:"record_hash"`
}

// Entries returns every record of chain in append order. Details were
// redacted when written.
func Entries(db *sql.DB, chain string) ([]Entry, error) {
	rows, err := db.Query(
		"SELECT id, timestamp, run_uuid, operator, event_type, detail, record_hash FROM audit_log WHERE chain = ? ORDER BY id ASC",
		chain,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.RunUUID, &e.Operator, &e.EventType, &detail, &e.RecordHash); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		if json.Valid([]byte(detail)) {
			e.Detail = json.RawMessage(detail)
		} else {
			e.Detail, _ = json.Marshal(detail)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
