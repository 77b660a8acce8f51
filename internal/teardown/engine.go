// Package teardown removes TwinMaker workspaces and the buckets and roles
// created for them. Destructive calls are gated by a commit flag; without it
// every listing still runs so the caller can review what would be removed.
package teardown

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iottwinmaker"
	"github.com/rs/zerolog"
	"github.com/twinprov/twinprov/internal/audit"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/naming"
)

// Engine talks to IAM, S3 and TwinMaker through the shared client bundle.
type Engine struct {
	clients  *awsfacade.Clients
	recorder audit.Recorder
	logger   zerolog.Logger
}

func NewEngine(clients *awsfacade.Clients, recorder audit.Recorder, logger zerolog.Logger) *Engine {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Engine{clients: clients, recorder: recorder, logger: logger}
}

// Report summarises a composite workspace teardown.
type Report struct {
	WorkspaceID      string
	Commit           bool
	WorkspaceFound   bool
	WorkspaceDeleted bool
	Bucket           BucketReport
	Roles            []RoleReport
}

// DeleteWorkspace deletes the TwinMaker workspace when commit is set. Failures
// are logged and returned.
func (e *Engine) DeleteWorkspace(ctx context.Context, workspaceID string, commit bool) error {
	log := e.logger.With().Str("workspace_id", workspaceID).Bool("commit", commit).Logger()
	detail := map[string]string{"resource": "workspace", "workspace_id": workspaceID}

	if !commit {
		log.Info().Msg("dry run: would delete workspace")
		e.recorder.Record(audit.EventDeletionDry, detail)
		return nil
	}

	log.Info().Msg("deleting workspace")
	if _, err := e.clients.TwinMaker.DeleteWorkspace(ctx, &iottwinmaker.DeleteWorkspaceInput{
		WorkspaceId: aws.String(workspaceID),
	}); err != nil {
		log.Error().Err(err).Msg("workspace deletion failed")
		return fmt.Errorf("deleting workspace %s: %w", workspaceID, err)
	}
	e.recorder.Record(audit.EventDeletion, detail)
	return nil
}

// TeardownWorkspace removes the workspace, its bucket with the access-log
// bucket, and both workspace roles. The bucket is taken from the live
// workspace when it exists and derived from the naming rules otherwise.
// Absent resources are skipped, as are derived names too long to have been
// created.
func (e *Engine) TeardownWorkspace(ctx context.Context, workspaceID string, commit bool) (Report, error) {
	report := Report{WorkspaceID: workspaceID, Commit: commit}
	log := e.logger.With().Str("workspace_id", workspaceID).Bool("commit", commit).Logger()

	ident, err := e.clients.Identity(ctx)
	if err != nil {
		return report, err
	}
	target := naming.Target{WorkspaceID: workspaceID, AccountID: ident.AccountID, Region: e.clients.Region}
	if err := target.ValidateID(); err != nil {
		return report, err
	}
	bucket := naming.BucketName(target)

	ws, err := e.clients.TwinMaker.GetWorkspace(ctx, &iottwinmaker.GetWorkspaceInput{WorkspaceId: aws.String(workspaceID)})
	switch {
	case err == nil:
		report.WorkspaceFound = true
		if name := bucketFromLocation(aws.ToString(ws.S3Location)); name != "" {
			bucket = name
		}
		if err := e.DeleteWorkspace(ctx, workspaceID, commit); err != nil {
			return report, err
		}
		report.WorkspaceDeleted = commit
	case awsfacade.KindOf(err) == awsfacade.KindResourceNotFound:
		log.Info().Msg("workspace not found, skipping")
		e.recorder.Record(audit.EventSkipped, map[string]string{"resource": "workspace", "workspace_id": workspaceID})
	default:
		return report, fmt.Errorf("looking up workspace %s: %w", workspaceID, err)
	}

	if len(bucket) > naming.MaxBucketName {
		log.Info().Str("bucket", bucket).Msg("derived bucket name exceeds the S3 limit, skipping")
		e.recorder.Record(audit.EventSkipped, map[string]string{"resource": "bucket", "bucket": bucket})
		report.Bucket = BucketReport{Bucket: bucket, Missing: true}
	} else if report.Bucket, err = e.DeleteWorkspaceBucketAndLogs(ctx, bucket, commit); err != nil {
		return report, err
	}

	for _, kind := range []naming.RoleKind{naming.RoleDashboardViewer, naming.RolePrimary} {
		rr, err := e.teardownRole(ctx, naming.RoleName(target, kind), commit)
		report.Roles = append(report.Roles, rr)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (e *Engine) teardownRole(ctx context.Context, roleName string, commit bool) (RoleReport, error) {
	rr := RoleReport{Name: roleName}
	if len(roleName) > naming.MaxRoleName {
		e.logger.Info().Str("role", roleName).Msg("role name exceeds the IAM limit, skipping")
		e.recorder.Record(audit.EventSkipped, map[string]string{"resource": "role", "role": roleName})
		rr.Missing = true
		return rr, nil
	}
	plan, err := e.PlanRoleDeletion(ctx, roleName)
	if awsfacade.KindOf(err) == awsfacade.KindResourceNotFound {
		e.logger.Info().Str("role", roleName).Msg("role not found, skipping")
		e.recorder.Record(audit.EventSkipped, map[string]string{"resource": "role", "role": roleName})
		rr.Missing = true
		return rr, nil
	}
	if err != nil {
		return rr, err
	}
	rr.Attachments = plan
	if !commit {
		e.recorder.Record(audit.EventDeletionDry, map[string]string{"resource": "role", "role": roleName})
		return rr, nil
	}
	if err := e.DeleteRoleAndPolicies(ctx, roleName); err != nil {
		return rr, err
	}
	rr.Deleted = true
	return rr, nil
}

// bucketFromLocation accepts either a bucket ARN or a bare bucket name.
func bucketFromLocation(location string) string {
	if i := strings.LastIndex(location, ":::"); i >= 0 {
		return location[i+3:]
	}
	return location
}
