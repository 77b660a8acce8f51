package provision

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/iottwinmaker"
	tmtypes "github.com/aws/aws-sdk-go-v2/service/iottwinmaker/types"
	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinprov/twinprov/internal/audit"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/aws/mocks"
	"github.com/twinprov/twinprov/internal/naming"
	"github.com/twinprov/twinprov/internal/testutil"
)

const (
	testAccount      = "123456789012"
	testWorkspaceARN = "arn:aws:iottwinmaker:us-west-2:123456789012:workspace/demo"
)

type recordedEvents struct {
	events []audit.EventType
	stages []string
}

func (r *recordedEvents) Record(eventType audit.EventType, detail map[string]string) {
	r.events = append(r.events, eventType)
	if eventType == audit.EventStageReached {
		r.stages = append(r.stages, detail["stage"])
	}
}

type harness struct {
	iam    *mocks.MockIAMAPI
	tm     *mocks.MockTwinMakerAPI
	s3     *testutil.FakeS3
	sleeps *sleepRecorder
	rec    *recordedEvents
	orch   *Orchestrator
	roles  []*iam.CreateRoleInput
}

func newHarness(t *testing.T, callerARN string) *harness {
	ctrl := gomock.NewController(t)
	h := &harness{
		iam:    mocks.NewMockIAMAPI(ctrl),
		tm:     mocks.NewMockTwinMakerAPI(ctrl),
		s3:     testutil.NewFakeS3(),
		sleeps: &sleepRecorder{},
		rec:    &recordedEvents{},
	}
	clients := &awsfacade.Clients{
		IAM:       h.iam,
		S3:        h.s3,
		TwinMaker: h.tm,
		STS:       testutil.FakeSTS{Account: testAccount, ARN: callerARN},
		Region:    "us-west-2",
	}
	h.orch = NewOrchestrator(clients, Options{
		Retrier:       Retrier{MaxAttempts: 10, Backoff: FixedBackoff{Interval: 2 * time.Second}, Sleep: h.sleeps.sleep},
		DashboardRole: true,
		Recorder:      h.rec,
		Logger:        zerolog.Nop(),
	})
	return h
}

// expectRoles lets n roles be created, each answering with an ARN derived
// from the requested name.
func (h *harness) expectRoles(n int) {
	h.iam.EXPECT().CreateRole(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
			h.roles = append(h.roles, in)
			return &iam.CreateRoleOutput{Role: &iamtypes.Role{
				Arn: aws.String("arn:aws:iam::" + testAccount + ":role/" + aws.ToString(in.RoleName)),
			}}, nil
		}).Times(n)
	h.iam.EXPECT().CreatePolicy(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *iam.CreatePolicyInput, _ ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
			return &iam.CreatePolicyOutput{Policy: &iamtypes.Policy{
				Arn: aws.String("arn:aws:iam::" + testAccount + ":policy/" + aws.ToString(in.PolicyName)),
			}}, nil
		}).Times(n)
	h.iam.EXPECT().AttachRolePolicy(gomock.Any(), gomock.Any()).Return(&iam.AttachRolePolicyOutput{}, nil).Times(n)
}

func notFound() error {
	return &tmtypes.ResourceNotFoundException{Message: aws.String("Workspace demo not found")}
}

func roleNotAssumable() error {
	return &tmtypes.ValidationException{Message: aws.String("Cannot assume role arn:aws:iam::123456789012:role/x")}
}

func existing() *iottwinmaker.GetWorkspaceOutput {
	return &iottwinmaker.GetWorkspaceOutput{
		WorkspaceId: aws.String("demo"),
		Arn:         aws.String(testWorkspaceARN),
		S3Location:  aws.String("arn:aws:s3:::twinmaker-workspace-demo-123456789012-us-west-2"),
		Role:        aws.String("arn:aws:iam::123456789012:role/twinmaker-workspace-demo-123456789012-us-west-2"),
	}
}

func TestCreateIfNotExistsReturnsExisting(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.tm.EXPECT().GetWorkspace(gomock.Any(), gomock.Any()).Return(existing(), nil)

	ws, err := h.orch.CreateIfNotExists(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, testWorkspaceARN, ws.ARN)
	assert.Nil(t, ws.Provisioned)
	assert.Empty(t, h.s3.Calls)
}

func TestCreateIfNotExistsIsIdempotent(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	gomock.InOrder(
		h.tm.EXPECT().GetWorkspace(gomock.Any(), gomock.Any()).Return(nil, notFound()),
		h.tm.EXPECT().GetWorkspace(gomock.Any(), gomock.Any()).Return(existing(), nil).Times(2),
	)
	h.expectRoles(2)
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).
		Return(&iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil).Times(1)

	first, err := h.orch.CreateIfNotExists(context.Background(), "demo")
	require.NoError(t, err)
	require.NotNil(t, first.Provisioned)
	assert.Equal(t, testWorkspaceARN, first.Provisioned.WorkspaceARN)

	second, err := h.orch.CreateIfNotExists(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, first.ARN, second.ARN)
	assert.Nil(t, second.Provisioned)

	assert.Equal(t, 2, h.s3.Count("CreateBucket"))
}

func TestCreateIfNotExistsPropagatesLookupFailure(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	denied := &tmtypes.AccessDeniedException{Message: aws.String("denied")}
	h.tm.EXPECT().GetWorkspace(gomock.Any(), gomock.Any()).Return(nil, denied)

	_, err := h.orch.CreateIfNotExists(context.Background(), "demo")
	assert.ErrorAs(t, err, &denied)
	assert.Empty(t, h.s3.Calls)
}

func TestCreateIfNotExistsWorkspaceMissingAfterProvisioning(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.tm.EXPECT().GetWorkspace(gomock.Any(), gomock.Any()).Return(nil, notFound()).Times(2)
	h.expectRoles(2)
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).
		Return(&iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil)

	_, err := h.orch.CreateIfNotExists(context.Background(), "demo")
	assert.ErrorIs(t, err, ErrWorkspaceMissing)
}

func TestPrepareWorkspaceProvisionsInOrder(t *testing.T) {
	h := newHarness(t, "arn:aws:sts::123456789012:assumed-role/Admin/session")
	h.expectRoles(2)
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *iottwinmaker.CreateWorkspaceInput, _ ...func(*iottwinmaker.Options)) (*iottwinmaker.CreateWorkspaceOutput, error) {
			assert.Equal(t, "demo", aws.ToString(in.WorkspaceId))
			assert.Equal(t, "arn:aws:s3:::twinmaker-workspace-demo-123456789012-us-west-2", aws.ToString(in.S3Location))
			assert.True(t, strings.HasSuffix(aws.ToString(in.Role), ":role/twinmaker-workspace-demo-123456789012-us-west-2"))
			return &iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil
		})

	prov, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, testWorkspaceARN, prov.WorkspaceARN)
	assert.Equal(t, "arn:aws:s3:::twinmaker-workspace-demo-123456789012-us-west-2", prov.WorkspaceS3BucketARN)
	assert.Equal(t, "arn:aws:iam::123456789012:role/twinmaker-workspace-demo-123456789012-us-west-2", prov.WorkspaceRoleARN)
	assert.Equal(t, "arn:aws:iam::123456789012:role/twinmaker-workspacedashboardrole-demo-123456789012-us-west-2", prov.WorkspaceDashboardARN)
	assert.True(t, prov.Buckets.LoggingEnabled)

	require.Len(t, h.roles, 2)
	assert.Contains(t, aws.ToString(h.roles[0].AssumeRolePolicyDocument), "iottwinmaker.amazonaws.com")
	assert.Contains(t, aws.ToString(h.roles[1].AssumeRolePolicyDocument), "arn:aws:iam::123456789012:role/Admin")

	assert.Equal(t, []string{
		"buckets_provisioned",
		"primary_role_provisioned",
		"workspace_created",
		"dashboard_role_provisioned",
		"done",
	}, h.rec.stages)
	assert.Empty(t, h.sleeps.delays)
}

func TestPrepareWorkspaceRetriesUntilRoleAssumable(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.expectRoles(2)

	calls := 0
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *iottwinmaker.CreateWorkspaceInput, ...func(*iottwinmaker.Options)) (*iottwinmaker.CreateWorkspaceOutput, error) {
			calls++
			if calls < 10 {
				return nil, roleNotAssumable()
			}
			return &iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil
		}).Times(10)

	prov, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, testWorkspaceARN, prov.WorkspaceARN)
	assert.Len(t, h.sleeps.delays, 9)
	for _, d := range h.sleeps.delays {
		assert.Equal(t, 2*time.Second, d)
	}
	retries := 0
	for _, ev := range h.rec.events {
		if ev == audit.EventRetry {
			retries++
		}
	}
	assert.Equal(t, 9, retries)
}

func TestPrepareWorkspaceRetriesBucketNotAccessible(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.expectRoles(2)
	gomock.InOrder(
		h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).
			Return(nil, &tmtypes.ValidationException{Message: aws.String("Cannot access S3 bucket with the provided role")}),
		h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).
			Return(&iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil),
	)

	_, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	require.NoError(t, err)
	assert.Len(t, h.sleeps.delays, 1)
}

func TestPrepareWorkspaceRetryExhausted(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.expectRoles(1)
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).Return(nil, roleNotAssumable()).Times(10)

	_, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	assert.ErrorIs(t, err, ErrRetryExhausted)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageWorkspaceCreated, stageErr.Stage)
	assert.Len(t, h.sleeps.delays, 9)
}

func TestPrepareWorkspaceUnrelatedValidationIsNotRetried(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.expectRoles(1)
	invalid := &tmtypes.ValidationException{Message: aws.String("Workspace id contains invalid characters")}
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).Return(nil, invalid).Times(1)

	_, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorAs(t, err, &invalid)
	assert.Empty(t, h.sleeps.delays)
}

func TestPrepareWorkspaceBucketFailureStopsEarly(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.s3.FailOn["CreateBucket"] = errors.New("BucketAlreadyExists")

	_, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageBucketsProvisioned, stageErr.Stage)
	assert.Contains(t, err.Error(), "twinmaker-workspace-demo-123456789012-us-west-2")
}

func TestPrepareWorkspaceRejectsInvalidID(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")

	_, err := h.orch.PrepareWorkspace(context.Background(), "bad id!")
	require.Error(t, err)
	assert.Empty(t, h.s3.Calls)
}

func TestPrepareWorkspaceWithoutDashboardRole(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.orch.dashboard = false
	h.expectRoles(1)
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).
		Return(&iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil)

	prov, err := h.orch.PrepareWorkspace(context.Background(), "demo")
	require.NoError(t, err)
	assert.Empty(t, prov.WorkspaceDashboardARN)
	assert.NotContains(t, h.rec.stages, "dashboard_role_provisioned")
}

func TestPrepareWorkspaceLongIDWithoutDashboardRole(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")
	h.orch.dashboard = false
	h.expectRoles(1)
	h.tm.EXPECT().CreateWorkspace(gomock.Any(), gomock.Any()).
		Return(&iottwinmaker.CreateWorkspaceOutput{Arn: aws.String(testWorkspaceARN)}, nil)

	prov, err := h.orch.PrepareWorkspace(context.Background(), "factory-floor")
	require.NoError(t, err)
	assert.Equal(t, "twinmaker-workspace-factory-floor-123456789012-us-west-2", prov.Buckets.Name)
	require.Len(t, h.roles, 1)
	assert.Equal(t, "twinmaker-workspace-factory-floor-123456789012-us-west-2", aws.ToString(h.roles[0].RoleName))
}

func TestPrepareWorkspaceLongIDWithDashboardRoleIsRejected(t *testing.T) {
	h := newHarness(t, "arn:aws:iam::123456789012:user/alice")

	_, err := h.orch.PrepareWorkspace(context.Background(), "factory-floor")
	require.ErrorIs(t, err, naming.ErrNameTooLong)
	assert.Empty(t, h.s3.Calls)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "workspace_created", StageWorkspaceCreated.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
