// Package core wires configuration, logging, state databases, the audit chain
// and the AWS facade into one Engine per CLI invocation, and records every
// provisioning or teardown operation as a run.
package core

import (
	"time"
)

// Operation names a CLI operation recorded in run history.
type Operation string

const (
	OpWorkspaceCreate Operation = "workspace.create"
	OpWorkspaceDelete Operation = "workspace.delete"
	OpBucketDelete    Operation = "bucket.delete"
	OpRoleDelete      Operation = "role.delete"
)

// RunStatus tracks a run's lifecycle.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	RunDryRun  RunStatus = "dry_run"
)

// Run records a single provisioning or teardown invocation.
type Run struct {
	UUID        string            `json:"uuid"`
	Operation   Operation         `json:"operation"`
	Target      string            `json:"target"` // workspace id, bucket name or role name
	Region      string            `json:"region,omitempty"`
	Commit      bool              `json:"commit"`
	Status      RunStatus         `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Outputs     map[string]string `json:"outputs,omitempty"`
	ErrorDetail *string           `json:"error_detail,omitempty"`
	CreatedBy   string            `json:"created_by"`
}
