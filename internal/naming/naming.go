// Package naming derives every TwinMaker workspace resource name from the
// (workspace id, account id, region) triple. Names carry no randomness, so a
// repeated provisioning run addresses the same resources.
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	workspacePrefix     = "twinmaker-workspace"
	dashboardRolePrefix = "twinmaker-WorkspaceDashboardRole"

	// PolicySuffix is appended to a role name to name its auto-created policy.
	PolicySuffix = "-AutoPolicy"
	// LogBucketSuffix links a workspace bucket to its access-log target.
	LogBucketSuffix = "-logs"

	// MaxBucketName and MaxRoleName are the S3 and IAM name limits. A name
	// longer than its limit cannot exist in the account.
	MaxBucketName = 63
	MaxRoleName   = 64
	maxPolicyName = 128
)

var (
	ErrInvalidWorkspaceID = errors.New("invalid workspace id")
	ErrNameTooLong        = errors.New("derived resource name too long")
)

var workspaceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RoleKind selects which of the two workspace roles a name refers to.
type RoleKind int

const (
	RolePrimary RoleKind = iota
	RoleDashboardViewer
)

func (k RoleKind) String() string {
	switch k {
	case RolePrimary:
		return "primary"
	case RoleDashboardViewer:
		return "dashboard"
	default:
		return fmt.Sprintf("RoleKind(%d)", int(k))
	}
}

// Target identifies the account and region a workspace lives in.
type Target struct {
	WorkspaceID string
	AccountID   string
	Region      string
}

// ValidateID checks only the workspace id pattern.
func (t Target) ValidateID() error {
	if !workspaceIDPattern.MatchString(t.WorkspaceID) {
		return fmt.Errorf("%w: %q", ErrInvalidWorkspaceID, t.WorkspaceID)
	}
	return nil
}

// Validate checks the workspace id, the bucket names, and the role and policy
// names of the given kinds against their service limits. Roles that will not
// be created are left out so their names do not constrain the id.
func (t Target) Validate(kinds ...RoleKind) error {
	if err := t.ValidateID(); err != nil {
		return err
	}
	if n := LogBucketName(t); len(n) > MaxBucketName {
		return fmt.Errorf("%w: bucket %q exceeds %d characters", ErrNameTooLong, n, MaxBucketName)
	}
	for _, kind := range kinds {
		if n := RoleName(t, kind); len(n) > MaxRoleName {
			return fmt.Errorf("%w: role %q exceeds %d characters", ErrNameTooLong, n, MaxRoleName)
		}
		if n := PolicyName(t, kind); len(n) > maxPolicyName {
			return fmt.Errorf("%w: policy %q exceeds %d characters", ErrNameTooLong, n, maxPolicyName)
		}
	}
	return nil
}

func scoped(prefix string, t Target) string {
	return strings.ToLower(fmt.Sprintf("%s-%s-%s-%s", prefix, t.WorkspaceID, t.AccountID, t.Region))
}

// BucketName returns the workspace bucket name.
func BucketName(t Target) string {
	return scoped(workspacePrefix, t)
}

// LogBucketName returns the name given to the access-log bucket at creation.
// Teardown rediscovers the log bucket from the live logging configuration.
func LogBucketName(t Target) string {
	return BucketName(t) + LogBucketSuffix
}

// RoleName returns the role name for kind.
func RoleName(t Target, kind RoleKind) string {
	if kind == RoleDashboardViewer {
		return scoped(dashboardRolePrefix, t)
	}
	return scoped(workspacePrefix, t)
}

// PolicyName returns the name of the managed policy auto-attached to the role.
func PolicyName(t Target, kind RoleKind) string {
	return RoleName(t, kind) + strings.ToLower(PolicySuffix)
}
