// runs.go persists run history.
package core

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRun returns a running Run with a fresh UUID.
func NewRun(op Operation, target, region string, commit bool) *Run {
	return &Run{
		UUID:      uuid.New().String(),
		Operation: op,
		Target:    target,
		Region:    region,
		Commit:    commit,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
		Outputs:   map[string]string{},
		CreatedBy: "local",
	}
}

// SaveRun inserts or replaces a run record.
func SaveRun(db *sql.DB, run *Run) error {
	outputsJSON, err := json.Marshal(run.Outputs)
	if err != nil {
		return fmt.Errorf("marshaling outputs: %w", err)
	}

	var completedAt sql.NullString
	if run.CompletedAt != nil {
		completedAt = sql.NullString{String: run.CompletedAt.Format(time.RFC3339), Valid: true}
	}
	var errorDetail sql.NullString
	if run.ErrorDetail != nil {
		errorDetail = sql.NullString{String: *run.ErrorDetail, Valid: true}
	}

	_, err = db.Exec(
		`INSERT OR REPLACE INTO runs (uuid, operation, target, region, commit_mode, status, started_at, completed_at, outputs, error_detail, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.UUID, string(run.Operation), run.Target, run.Region, run.Commit, string(run.Status),
		run.StartedAt.Format(time.RFC3339), completedAt, string(outputsJSON), errorDetail, run.CreatedBy,
	)
	return err
}

const runColumns = `uuid, operation, target, region, commit_mode, status, started_at, completed_at, outputs, error_detail, created_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var op, status, startedAt, outputsJSON string
	var completedAt, errorDetail sql.NullString
	if err := row.Scan(
		&run.UUID, &op, &run.Target, &run.Region, &run.Commit, &status,
		&startedAt, &completedAt, &outputsJSON, &errorDetail, &run.CreatedBy,
	); err != nil {
		return nil, err
	}
	run.Operation = Operation(op)
	run.Status = RunStatus(status)
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		run.CompletedAt = &t
	}
	if errorDetail.Valid {
		run.ErrorDetail = &errorDetail.String
	}
	json.Unmarshal([]byte(outputsJSON), &run.Outputs)
	return &run, nil
}

// LoadRun reads one run by UUID or UUID prefix.
func LoadRun(db *sql.DB, runUUID string) (*Run, error) {
	run, err := scanRun(db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE uuid = ? OR uuid LIKE ? ORDER BY uuid LIMIT 1`,
		runUUID, runUUID+"%",
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", runUUID)
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
