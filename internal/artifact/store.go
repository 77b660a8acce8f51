// Package artifact keeps the structured reports produced by each run.
// Content is written as flat files under <state_dir>/artifacts, named by its
// SHA-256 hash, with metadata tracked in the runs database.
package artifact

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Kind classifies what an artifact holds.
type Kind string

const (
	KindProvisionResult Kind = "provision_result"
	KindTeardownReport  Kind = "teardown_report"
	KindBucketReport    Kind = "bucket_report"
	KindRolePlan        Kind = "role_plan"
)

// Schema is applied to the runs database alongside the run table.
const Schema = `
CREATE TABLE IF NOT EXISTS artifacts (
    uuid            TEXT PRIMARY KEY,
    run_uuid        TEXT NOT NULL,
    kind            TEXT NOT NULL,
    label           TEXT DEFAULT '',
    content_hash    TEXT NOT NULL,
    storage_path    TEXT NOT NULL,
    byte_size       INTEGER DEFAULT 0,
    created_at      TEXT NOT NULL,
    created_by      TEXT NOT NULL DEFAULT 'local'
);

CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_uuid);
`

// Record is the metadata for one stored artifact.
type Record struct {
	UUID        string    `json:"uuid"`
	RunUUID     string    `json:"run_uuid"`
	Kind        Kind      `json:"kind"`
	Label       string    `json:"label"`
	ContentHash string    `json:"content_hash"`
	StoragePath string    `json:"storage_path"`
	ByteSize    int64     `json:"byte_size"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// ErrNotFound is returned by Get when no artifact matches.
var ErrNotFound = errors.New("artifact not found")

// Store manages artifact persistence (files on disk + metadata in SQLite).
type Store struct {
	db           *sql.DB
	artifactsDir string
}

// NewStore creates an artifact store rooted in stateDir.
func NewStore(db *sql.DB, stateDir string) *Store {
	return &Store{
		db:           db,
		artifactsDir: filepath.Join(stateDir, "artifacts"),
	}
}

// CreateInput holds parameters for creating an artifact.
type CreateInput struct {
	RunUUID   string
	Kind      Kind
	Label     string
	Content   []byte
	CreatedBy string
}

// Create stores content on disk and records its metadata. Identical content
// shares one file.
func (s *Store) Create(input CreateInput) (*Record, error) {
	h := sha256.Sum256(input.Content)
	contentHash := hex.EncodeToString(h[:])
	storagePath := filepath.Join(s.artifactsDir, contentHash)

	if err := os.MkdirAll(s.artifactsDir, 0700); err != nil {
		return nil, fmt.Errorf("ensuring artifacts directory: %w", err)
	}
	if _, err := os.Stat(storagePath); os.IsNotExist(err) {
		if err := os.WriteFile(storagePath, input.Content, 0600); err != nil {
			return nil, fmt.Errorf("writing artifact file: %w", err)
		}
	}

	rec := &Record{
		UUID:        uuid.New().String(),
		RunUUID:     input.RunUUID,
		Kind:        input.Kind,
		Label:       input.Label,
		ContentHash: contentHash,
		StoragePath: contentHash,
		ByteSize:    int64(len(input.Content)),
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   input.CreatedBy,
	}
	if rec.CreatedBy == "" {
		rec.CreatedBy = "local"
	}

	_, err := s.db.Exec(
		`INSERT INTO artifacts (uuid, run_uuid, kind, label, content_hash, storage_path, byte_size, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID, rec.RunUUID, string(rec.Kind), rec.Label, rec.ContentHash, rec.StoragePath,
		rec.ByteSize, rec.CreatedAt.Format(time.RFC3339), rec.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting artifact record: %w", err)
	}
	return rec, nil
}

// CreateJSON stores v as indented JSON.
func (s *Store) CreateJSON(runUUID string, kind Kind, label string, v any) (*Record, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s artifact: %w", kind, err)
	}
	return s.Create(CreateInput{RunUUID: runUUID, Kind: kind, Label: label, Content: content})
}

const recordColumns = `uuid, run_uuid, kind, label, content_hash, storage_path, byte_size, created_at, created_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var createdAt string
	if err := row.Scan(&rec.UUID, &rec.RunUUID, &rec.Kind, &rec.Label, &rec.ContentHash,
		&rec.StoragePath, &rec.ByteSize, &createdAt, &rec.CreatedBy); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// Get retrieves an artifact record by UUID or UUID prefix.
func (s *Store) Get(artUUID string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT `+recordColumns+` FROM artifacts WHERE uuid = ? OR uuid LIKE ? ORDER BY uuid LIMIT 1`,
		artUUID, artUUID+"%",
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, artUUID)
	}
	return rec, err
}

// ReadContent returns the bytes of an artifact after checking its hash.
func (s *Store) ReadContent(rec *Record) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.artifactsDir, rec.StoragePath))
	if err != nil {
		return nil, fmt.Errorf("reading artifact file: %w", err)
	}
	h := sha256.Sum256(data)
	if hex.EncodeToString(h[:]) != rec.ContentHash {
		return nil, fmt.Errorf("artifact integrity check failed: hash mismatch for %s", rec.UUID)
	}
	return data, nil
}

// List returns artifacts for runUUID, or every artifact when runUUID is empty,
// newest first.
func (s *Store) List(runUUID string) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM artifacts`
	var args []any
	if runUUID != "" {
		query += " WHERE run_uuid = ?"
		args = append(args, runUUID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// VerifyIntegrity checks that every artifact file matches its recorded hash.
func (s *Store) VerifyIntegrity() (valid int, invalid []string, err error) {
	records, err := s.List("")
	if err != nil {
		return 0, nil, err
	}

	for _, rec := range records {
		data, readErr := os.ReadFile(filepath.Join(s.artifactsDir, rec.StoragePath))
		if readErr != nil {
			invalid = append(invalid, fmt.Sprintf("%s: file missing", rec.UUID))
			continue
		}
		h := sha256.Sum256(data)
		if hex.EncodeToString(h[:]) != rec.ContentHash {
			invalid = append(invalid, fmt.Sprintf("%s: hash mismatch", rec.UUID))
			continue
		}
		valid++
	}
	return valid, invalid, nil
}
