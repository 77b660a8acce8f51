// engine.go provides the Engine that wires together config, state, audit and
// the AWS facade for one CLI invocation.
package core

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/twinprov/twinprov/internal/artifact"
	"github.com/twinprov/twinprov/internal/audit"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/config"
	"github.com/twinprov/twinprov/internal/db"
	"github.com/twinprov/twinprov/internal/provision"
	"github.com/twinprov/twinprov/internal/scope"
	"github.com/twinprov/twinprov/internal/teardown"
)

// ClientFactory builds the AWS client bundle for one run.
type ClientFactory func(ctx context.Context, opts awsfacade.Options) (*awsfacade.Clients, error)

// Engine is the central coordinator for one twinprov invocation.
type Engine struct {
	Config      config.Config
	RunsDB      *sql.DB
	AuditDB     *sql.DB
	AuditLogger *audit.Logger
	Artifacts   *artifact.Store
	Chain       string
	Logger      zerolog.Logger

	newClients ClientFactory
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customises an Engine at Open time.
type Option func(*Engine)

// WithClientFactory replaces the SDK-backed client construction.
func WithClientFactory(f ClientFactory) Option {
	return func(e *Engine) { e.newClients = f }
}

// WithSleep replaces the retry sleep used during workspace creation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// Open prepares the state directory, opens both databases and the audit
// chain for the configured profile.
func Open(cfg config.Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if err := db.EnsureStateDir(cfg.StateDir); err != nil {
		return nil, err
	}

	runsDB, err := db.OpenRunsDB(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("opening runs database: %w", err)
	}

	auditDB, err := db.OpenAuditDB(cfg.StateDir)
	if err != nil {
		runsDB.Close()
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	chain := AuditChain(cfg.Profile)
	al, err := audit.NewLogger(auditDB, chain)
	if err != nil {
		runsDB.Close()
		auditDB.Close()
		return nil, fmt.Errorf("creating audit logger: %w", err)
	}

	e := &Engine{
		Config:      cfg,
		RunsDB:      runsDB,
		AuditDB:     auditDB,
		AuditLogger: al,
		Artifacts:   artifact.NewStore(runsDB, cfg.StateDir),
		Chain:       chain,
		Logger:      logger,
		newClients:  awsfacade.NewClients,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AuditChain names the audit chain used for profile.
func AuditChain(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// Close cleanly shuts down all engine resources.
func (e *Engine) Close() error {
	var firstErr error
	if e.RunsDB != nil {
		if err := e.RunsDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.AuditDB != nil {
		if err := e.AuditDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Retrier builds the workspace creation retry policy from configuration.
func (e *Engine) Retrier() provision.Retrier {
	rc := e.Config.Retry
	var backoff provision.Backoff = provision.FixedBackoff{Interval: rc.Delay}
	if rc.Strategy == config.StrategyExponential {
		backoff = provision.ExponentialBackoff{Base: rc.Delay, Max: rc.MaxDelay}
	}
	return provision.Retrier{MaxAttempts: rc.MaxAttempts, Backoff: backoff, Sleep: e.sleep}
}

// runContext carries everything one operation needs.
type runContext struct {
	run      *Run
	clients  *awsfacade.Clients
	recorder *audit.RunRecorder
	logger   zerolog.Logger
}

func (e *Engine) startRun(ctx context.Context, op Operation, target string, commit bool) (*runContext, error) {
	run := NewRun(op, target, e.Config.Region, commit)
	logger := e.Logger.With().Str("run_uuid", run.UUID).Logger()

	clients, err := e.newClients(ctx, awsfacade.Options{
		Credentials: awsfacade.SessionCredentials{Region: e.Config.Region, Profile: e.Config.Profile},
		RatePerSec:  e.Config.RateLimitPerService,
		Logger:      logger,
		Audit:       e.AuditLogger,
		RunUUID:     run.UUID,
		Operator:    run.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	run.Region = clients.Region

	if err := e.checkScope(ctx, clients, run, logger); err != nil {
		return nil, err
	}

	if err := SaveRun(e.RunsDB, run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	rec := e.AuditLogger.ForRun(run.UUID, run.CreatedBy)
	rec.OnError = func(err error) { logger.Warn().Err(err).Msg("audit write failed") }
	rec.Record(audit.EventRunStarted, map[string]string{
		"operation": string(op),
		"target":    target,
		"commit":    strconv.FormatBool(commit),
	})
	logger.Info().Str("operation", string(op)).Str("target", target).Bool("commit", commit).Msg("run started")

	return &runContext{run: run, clients: clients, recorder: rec, logger: logger}, nil
}

// checkScope refuses to run outside the configured account and region
// allow-lists. Violations are audited without creating a run record.
func (e *Engine) checkScope(ctx context.Context, clients *awsfacade.Clients, run *Run, logger zerolog.Logger) error {
	if e.Config.Scope.Empty() {
		return nil
	}
	ident, err := clients.Identity(ctx)
	if err != nil {
		return fmt.Errorf("resolving caller identity: %w", err)
	}
	if err := scope.NewChecker(e.Config.Scope).Check(ident.AccountID, clients.Region); err != nil {
		logger.Error().Err(err).Str("account", ident.AccountID).Str("region", clients.Region).Msg("refusing out-of-scope run")
		if logErr := e.AuditLogger.Log(audit.EventScopeViolation, run.CreatedBy, run.UUID, map[string]string{
			"operation": string(run.Operation),
			"target":    run.Target,
			"account":   ident.AccountID,
			"region":    clients.Region,
		}); logErr != nil {
			logger.Warn().Err(logErr).Msg("audit write failed")
		}
		return err
	}
	return nil
}

// saveReport stores v as the run's report artifact and links it from the run
// outputs. Failures are logged; the run outcome does not depend on them.
func (e *Engine) saveReport(rc *runContext, kind artifact.Kind, label string, v any) {
	rec, err := e.Artifacts.CreateJSON(rc.run.UUID, kind, label, v)
	if err != nil {
		rc.logger.Warn().Err(err).Msg("saving run report failed")
		return
	}
	rc.run.Outputs["report"] = rec.UUID
}

func (e *Engine) finishRun(rc *runContext, opErr error) {
	now := time.Now().UTC()
	rc.run.CompletedAt = &now
	switch {
	case opErr != nil:
		rc.run.Status = RunError
		detail := opErr.Error()
		rc.run.ErrorDetail = &detail
	case !rc.run.Commit:
		rc.run.Status = RunDryRun
	default:
		rc.run.Status = RunSuccess
	}
	if err := SaveRun(e.RunsDB, rc.run); err != nil {
		rc.logger.Warn().Err(err).Msg("saving run failed")
	}
	rc.recorder.Record(audit.EventRunFinished, map[string]string{"status": string(rc.run.Status)})
	rc.logger.Info().Str("status", string(rc.run.Status)).Msg("run finished")
}

// CreateWorkspace provisions workspaceID unless it already exists.
func (e *Engine) CreateWorkspace(ctx context.Context, workspaceID string) (provision.Workspace, *Run, error) {
	rc, err := e.startRun(ctx, OpWorkspaceCreate, workspaceID, true)
	if err != nil {
		return provision.Workspace{}, nil, err
	}
	orch := provision.NewOrchestrator(rc.clients, provision.Options{
		Retrier:       e.Retrier(),
		DashboardRole: e.Config.DashboardRole,
		Recorder:      rc.recorder,
		Logger:        rc.logger.With().Str("workspace_id", workspaceID).Logger(),
	})

	ws, err := orch.CreateIfNotExists(ctx, workspaceID)
	if err == nil {
		rc.run.Outputs["workspace_arn"] = ws.ARN
		if p := ws.Provisioned; p != nil {
			rc.run.Outputs["workspace_s3_bucket_arn"] = p.WorkspaceS3BucketARN
			rc.run.Outputs["workspace_role_arn"] = p.WorkspaceRoleARN
			rc.run.Outputs["workspace_dashboard_role_arn"] = p.WorkspaceDashboardARN
		}
		e.saveReport(rc, artifact.KindProvisionResult, workspaceID, ws)
	}
	e.finishRun(rc, err)
	return ws, rc.run, err
}

// DeleteWorkspace tears down the workspace with its bucket pair and roles.
func (e *Engine) DeleteWorkspace(ctx context.Context, workspaceID string, commit bool) (teardown.Report, *Run, error) {
	rc, err := e.startRun(ctx, OpWorkspaceDelete, workspaceID, commit)
	if err != nil {
		return teardown.Report{}, nil, err
	}
	report, err := e.teardown(rc).TeardownWorkspace(ctx, workspaceID, commit)
	if err == nil {
		rc.run.Outputs["bucket"] = report.Bucket.Bucket
		rc.run.Outputs["bucket_entries"] = strconv.Itoa(report.Bucket.Entries())
		rc.run.Outputs["workspace_found"] = strconv.FormatBool(report.WorkspaceFound)
		e.saveReport(rc, artifact.KindTeardownReport, workspaceID, report)
	}
	e.finishRun(rc, err)
	return report, rc.run, err
}

// DeleteBucket empties and deletes a bucket and its access-log bucket.
func (e *Engine) DeleteBucket(ctx context.Context, bucket string, commit bool) (teardown.BucketReport, *Run, error) {
	rc, err := e.startRun(ctx, OpBucketDelete, bucket, commit)
	if err != nil {
		return teardown.BucketReport{}, nil, err
	}
	report, err := e.teardown(rc).DeleteWorkspaceBucketAndLogs(ctx, bucket, commit)
	if err == nil {
		rc.run.Outputs["entries"] = strconv.Itoa(report.Entries())
		if report.LogBucket != nil {
			rc.run.Outputs["log_bucket"] = report.LogBucket.Bucket
		}
		e.saveReport(rc, artifact.KindBucketReport, bucket, report)
	}
	e.finishRun(rc, err)
	return report, rc.run, err
}

// DeleteRole lists a role's attachments and, with commit, removes them and
// the role.
func (e *Engine) DeleteRole(ctx context.Context, roleName string, commit bool) (teardown.RoleAttachments, *Run, error) {
	rc, err := e.startRun(ctx, OpRoleDelete, roleName, commit)
	if err != nil {
		return teardown.RoleAttachments{}, nil, err
	}
	td := e.teardown(rc)
	plan, err := td.PlanRoleDeletion(ctx, roleName)
	if err == nil && commit {
		err = td.DeleteRoleAndPolicies(ctx, roleName)
	}
	if err == nil {
		rc.run.Outputs["instance_profiles"] = strconv.Itoa(len(plan.InstanceProfiles))
		rc.run.Outputs["inline_policies"] = strconv.Itoa(len(plan.InlinePolicies))
		rc.run.Outputs["managed_policies"] = strconv.Itoa(len(plan.ManagedPolicies))
		e.saveReport(rc, artifact.KindRolePlan, roleName, plan)
	}
	e.finishRun(rc, err)
	return plan, rc.run, err
}

func (e *Engine) teardown(rc *runContext) *teardown.Engine {
	return teardown.NewEngine(rc.clients, rc.recorder, rc.logger)
}

// ListRuns returns recent run history.
func (e *Engine) ListRuns(limit int) ([]Run, error) {
	return ListRuns(e.RunsDB, limit)
}

// GetRun loads one run by UUID or UUID prefix.
func (e *Engine) GetRun(runUUID string) (*Run, error) {
	return LoadRun(e.RunsDB, runUUID)
}

// RunReports returns the artifacts recorded for a run with their content.
func (e *Engine) RunReports(runUUID string) ([]artifact.Record, [][]byte, error) {
	records, err := e.Artifacts.List(runUUID)
	if err != nil {
		return nil, nil, err
	}
	contents := make([][]byte, 0, len(records))
	for i := range records {
		data, err := e.Artifacts.ReadContent(&records[i])
		if err != nil {
			return nil, nil, err
		}
		contents = append(contents, data)
	}
	return records, contents, nil
}

// VerifyArtifacts checks every stored report against its content hash.
func (e *Engine) VerifyArtifacts() (int, []string, error) {
	return e.Artifacts.VerifyIntegrity()
}

// VerifyAudit checks the integrity of this profile's audit chain.
func (e *Engine) VerifyAudit() (bool, int, error) {
	return audit.Verify(e.AuditDB, e.Chain)
}
