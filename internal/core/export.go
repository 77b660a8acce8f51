package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/twinprov/twinprov/internal/artifact"
	"github.com/twinprov/twinprov/internal/audit"
)

// BundleFormat identifies the layout written by WriteBundle.
const BundleFormat = "twinprov_evidence_bundle_v1"

// Manifest summarises an evidence bundle.
type Manifest struct {
	Format      string    `json:"format"`
	ExportedAt  time.Time `json:"exported_at"`
	Chain       string    `json:"chain"`
	Runs        int       `json:"runs"`
	Reports     int       `json:"reports"`
	AuditEvents int       `json:"audit_events"`
	AuditValid  bool      `json:"audit_valid"`
	AuditError  string    `json:"audit_error,omitempty"`
}

// Report is a stored run artifact together with its verified content.
type Report struct {
	artifact.Record
	Content json.RawMessage `json:"content"`
}

// RunBundle is one run with every report it produced.
type RunBundle struct {
	Run     Run      `json:"run"`
	Reports []Report `json:"reports,omitempty"`
}

// Bundle is the full run history and audit chain of this profile. Audit
// details are already redacted, so the bundle holds no secret material.
type Bundle struct {
	Manifest Manifest      `json:"manifest"`
	Runs     []RunBundle   `json:"runs"`
	Audit    []audit.Entry `json:"audit"`
}

// Export gathers every run, its reports and the audit chain. A broken audit
// chain is reported in the manifest rather than failing the export; a report
// whose content no longer matches its hash fails it.
func (e *Engine) Export() (Bundle, error) {
	b := Bundle{Manifest: Manifest{
		Format:     BundleFormat,
		ExportedAt: time.Now().UTC(),
		Chain:      e.Chain,
	}}

	runs, err := e.ListRuns(0)
	if err != nil {
		return b, fmt.Errorf("listing runs: %w", err)
	}
	for _, run := range runs {
		records, contents, err := e.RunReports(run.UUID)
		if err != nil {
			return b, fmt.Errorf("reading reports of run %s: %w", run.UUID, err)
		}
		rb := RunBundle{Run: run}
		for i, rec := range records {
			rb.Reports = append(rb.Reports, Report{Record: rec, Content: rawJSON(contents[i])})
		}
		b.Manifest.Reports += len(rb.Reports)
		b.Runs = append(b.Runs, rb)
	}
	b.Manifest.Runs = len(b.Runs)

	if b.Audit, err = audit.Entries(e.AuditDB, e.Chain); err != nil {
		return b, err
	}
	b.Manifest.AuditEvents = len(b.Audit)
	valid, _, verr := e.VerifyAudit()
	b.Manifest.AuditValid = valid && verr == nil
	if verr != nil {
		b.Manifest.AuditError = verr.Error()
	}
	return b, nil
}

// WriteBundle lays a bundle out under dir as manifest.json, runs/<uuid>.json
// and audit/audit.json.
func WriteBundle(dir string, b Bundle) error {
	for _, d := range []string{dir, filepath.Join(dir, "runs"), filepath.Join(dir, "audit")} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	if err := writeJSON(filepath.Join(dir, "manifest.json"), b.Manifest); err != nil {
		return err
	}
	for _, rb := range b.Runs {
		if err := writeJSON(filepath.Join(dir, "runs", rb.Run.UUID+".json"), rb); err != nil {
			return err
		}
	}
	entries := b.Audit
	if entries == nil {
		entries = []audit.Entry{}
	}
	return writeJSON(filepath.Join(dir, "audit", "audit.json"), entries)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func rawJSON(data []byte) json.RawMessage {
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}
