// Package provision creates TwinMaker workspaces and the buckets and roles
// they depend on.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iottwinmaker"
	"github.com/rs/zerolog"
	"github.com/twinprov/twinprov/internal/audit"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/naming"
	"github.com/twinprov/twinprov/internal/policy"
)

// ErrWorkspaceMissing is returned when a workspace reported as created cannot
// be read back.
var ErrWorkspaceMissing = errors.New("workspace not found after provisioning")

// Stage is a checkpoint of the provisioning sequence. Stages are reached in
// declaration order.
type Stage int

const (
	StageNotStarted Stage = iota
	StageBucketsProvisioned
	StagePrimaryRoleProvisioned
	StageWorkspaceCreated
	StageDashboardRoleProvisioned
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not_started"
	case StageBucketsProvisioned:
		return "buckets_provisioned"
	case StagePrimaryRoleProvisioned:
		return "primary_role_provisioned"
	case StageWorkspaceCreated:
		return "workspace_created"
	case StageDashboardRoleProvisioned:
		return "dashboard_role_provisioned"
	case StageDone:
		return "done"
	default:
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
}

// StageError reports the stage provisioning was working towards when it
// failed. Resources from earlier stages are left in place.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("provisioning stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ProvisionedWorkspace is the result of a full provisioning run.
type ProvisionedWorkspace struct {
	WorkspaceARN          string
	WorkspaceS3BucketARN  string
	WorkspaceRoleARN      string
	WorkspaceDashboardARN string
	Buckets               BucketPair
}

// Workspace is a TwinMaker workspace as read back from the service.
// Provisioned is nil when the workspace already existed.
type Workspace struct {
	ID          string
	ARN         string
	Role        string
	S3Location  string
	Provisioned *ProvisionedWorkspace
}

// Options configures an Orchestrator.
type Options struct {
	Retrier       Retrier
	DashboardRole bool
	Recorder      audit.Recorder
	Logger        zerolog.Logger
}

// Orchestrator sequences bucket, role and workspace creation. One call owns
// its policy parameters; callers must not provision the same workspace id
// concurrently.
type Orchestrator struct {
	clients   *awsfacade.Clients
	buckets   *BucketProvisioner
	roles     *RoleProvisioner
	retrier   Retrier
	dashboard bool
	recorder  audit.Recorder
	logger    zerolog.Logger
}

func NewOrchestrator(clients *awsfacade.Clients, opts Options) *Orchestrator {
	retrier := opts.Retrier
	if retrier.MaxAttempts == 0 {
		retrier = DefaultRetrier()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Orchestrator{
		clients:   clients,
		buckets:   NewBucketProvisioner(clients.S3, opts.Logger),
		roles:     NewRoleProvisioner(clients.IAM, opts.Logger),
		retrier:   retrier,
		dashboard: opts.DashboardRole,
		recorder:  rec,
		logger:    opts.Logger,
	}
}

// GetWorkspace reads a workspace. A missing workspace surfaces as an error of
// kind KindResourceNotFound.
func (o *Orchestrator) GetWorkspace(ctx context.Context, workspaceID string) (Workspace, error) {
	out, err := o.clients.TwinMaker.GetWorkspace(ctx, &iottwinmaker.GetWorkspaceInput{
		WorkspaceId: aws.String(workspaceID),
	})
	if err != nil {
		return Workspace{}, err
	}
	if out == nil || aws.ToString(out.WorkspaceId) == "" {
		return Workspace{}, fmt.Errorf("workspace %s: %w", workspaceID, ErrWorkspaceMissing)
	}
	return Workspace{
		ID:         aws.ToString(out.WorkspaceId),
		ARN:        aws.ToString(out.Arn),
		Role:       aws.ToString(out.Role),
		S3Location: aws.ToString(out.S3Location),
	}, nil
}

// CreateIfNotExists returns the workspace if it exists and provisions it
// otherwise. Repeated calls are safe.
func (o *Orchestrator) CreateIfNotExists(ctx context.Context, workspaceID string) (Workspace, error) {
	log := o.logger.With().Str("workspace_id", workspaceID).Logger()

	ws, err := o.GetWorkspace(ctx, workspaceID)
	if err == nil {
		log.Info().Str("workspace_arn", ws.ARN).Msg("workspace already exists")
		o.recorder.Record(audit.EventSkipped, map[string]string{"workspace_id": workspaceID, "reason": "exists"})
		return ws, nil
	}
	if awsfacade.KindOf(err) != awsfacade.KindResourceNotFound {
		return Workspace{}, fmt.Errorf("looking up workspace %s: %w", workspaceID, err)
	}

	log.Info().Msg("workspace not found, provisioning")
	prov, err := o.PrepareWorkspace(ctx, workspaceID)
	if err != nil {
		return Workspace{}, err
	}

	ws, err = o.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if awsfacade.KindOf(err) == awsfacade.KindResourceNotFound {
			return Workspace{}, fmt.Errorf("workspace %s: %w: %w", workspaceID, ErrWorkspaceMissing, err)
		}
		return Workspace{}, fmt.Errorf("reading back workspace %s: %w", workspaceID, err)
	}
	ws.Provisioned = &prov
	return ws, nil
}

// PrepareWorkspace provisions the bucket pair, the primary role, the
// workspace and the dashboard role, in that order.
func (o *Orchestrator) PrepareWorkspace(ctx context.Context, workspaceID string) (ProvisionedWorkspace, error) {
	log := o.logger.With().Str("workspace_id", workspaceID).Logger()
	var result ProvisionedWorkspace

	ident, err := o.clients.Identity(ctx)
	if err != nil {
		return result, &StageError{Stage: StageBucketsProvisioned, Err: err}
	}
	target := naming.Target{WorkspaceID: workspaceID, AccountID: ident.AccountID, Region: o.clients.Region}
	kinds := []naming.RoleKind{naming.RolePrimary}
	if o.dashboard {
		kinds = append(kinds, naming.RoleDashboardViewer)
	}
	if err := target.Validate(kinds...); err != nil {
		return result, &StageError{Stage: StageBucketsProvisioned, Err: err}
	}
	partition := ident.Partition()

	params := policy.Params{
		policy.KeyAccountID:   ident.AccountID,
		policy.KeyAccountARN:  ident.ARN,
		policy.KeyRegion:      target.Region,
		policy.KeyPartition:   partition,
		policy.KeyWorkspaceID: workspaceID,
	}

	pair, err := o.buckets.CreateWorkspaceBucketPair(ctx, partition, target)
	if err != nil {
		return result, &StageError{Stage: StageBucketsProvisioned, Err: err}
	}
	result.Buckets = pair
	result.WorkspaceS3BucketARN = pair.ARN
	params = params.With(policy.KeyWorkspaceS3BucketARN, pair.ARN)
	o.reached(log, StageBucketsProvisioned, "bucket_arn", pair.ARN)

	roleARN, err := o.createRole(ctx, target, naming.RolePrimary, policy.WorkspaceRoleAssume, policy.WorkspaceRolePermissions, params)
	if err != nil {
		return result, &StageError{Stage: StagePrimaryRoleProvisioned, Err: err}
	}
	result.WorkspaceRoleARN = roleARN
	o.reached(log, StagePrimaryRoleProvisioned, "role_arn", roleARN)

	workspaceARN, err := o.createWorkspace(ctx, log, workspaceID, roleARN, pair.ARN)
	if err != nil {
		return result, &StageError{Stage: StageWorkspaceCreated, Err: err}
	}
	result.WorkspaceARN = workspaceARN
	o.reached(log, StageWorkspaceCreated, "workspace_arn", workspaceARN)

	if o.dashboard {
		params = params.
			With(policy.KeyWorkspaceARN, workspaceARN).
			With(policy.KeyDashboardRoleAssumedBy, ident.PrincipalARN())

		dashboardARN, err := o.createRole(ctx, target, naming.RoleDashboardViewer, policy.DashboardRoleAssume, policy.DashboardRolePermissions, params)
		if err != nil {
			return result, &StageError{Stage: StageDashboardRoleProvisioned, Err: err}
		}
		result.WorkspaceDashboardARN = dashboardARN
		o.reached(log, StageDashboardRoleProvisioned, "role_arn", dashboardARN)
		log.Warn().Str("role_arn", dashboardARN).
			Msg("dashboard role policy does not grant video permissions; add them manually if the dashboard streams video")
	}

	o.reached(log, StageDone, "workspace_arn", workspaceARN)
	return result, nil
}

func (o *Orchestrator) createRole(ctx context.Context, t naming.Target, kind naming.RoleKind, assumeTmpl, permsTmpl string, params policy.Params) (string, error) {
	assume, err := policy.Document(assumeTmpl, params)
	if err != nil {
		return "", err
	}
	perms, err := policy.Document(permsTmpl, params)
	if err != nil {
		return "", err
	}
	return o.roles.CreateRoleAndPolicy(ctx, RoleSpec{
		Target:            t,
		Kind:              kind,
		AssumePolicy:      assume,
		PermissionsPolicy: perms,
	})
}

// createWorkspace absorbs IAM propagation lag: TwinMaker rejects a role it
// cannot assume yet, or cannot use to reach the bucket yet, with a
// validation error. Only those two rejections are retried.
func (o *Orchestrator) createWorkspace(ctx context.Context, log zerolog.Logger, workspaceID, roleARN, bucketARN string) (string, error) {
	retrier := o.retrier
	retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
		kind := awsfacade.KindOf(err)
		log.Warn().Int("attempt", attempt).Dur("delay", delay).Str("error_kind", kind.String()).
			Msg("workspace role not usable yet, retrying")
		o.recorder.Record(audit.EventRetry, map[string]string{
			"workspace_id": workspaceID,
			"attempt":      strconv.Itoa(attempt),
			"error_kind":   kind.String(),
		})
	}

	var arn string
	err := retrier.Do(ctx, awsfacade.IsPropagationLag, func(ctx context.Context) error {
		out, err := o.clients.TwinMaker.CreateWorkspace(ctx, &iottwinmaker.CreateWorkspaceInput{
			WorkspaceId: aws.String(workspaceID),
			Role:        aws.String(roleARN),
			S3Location:  aws.String(bucketARN),
		})
		if err != nil {
			return err
		}
		arn = aws.ToString(out.Arn)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("creating workspace %s: %w", workspaceID, err)
	}
	if arn == "" {
		return "", fmt.Errorf("creating workspace %s: %w", workspaceID, ErrMissingARN)
	}
	return arn, nil
}

func (o *Orchestrator) reached(log zerolog.Logger, stage Stage, key, value string) {
	log.Info().Str("stage", stage.String()).Str(key, value).Msg("stage reached")
	o.recorder.Record(audit.EventStageReached, map[string]string{
		"stage": stage.String(),
		key:     value,
	})
}
