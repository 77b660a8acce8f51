package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/rs/zerolog"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/naming"
)

// ErrMissingARN is returned when IAM reports success but omits the ARN of the
// resource it created.
var ErrMissingARN = errors.New("response missing ARN")

// RoleSpec is everything needed to create one workspace role.
type RoleSpec struct {
	Target            naming.Target
	Kind              naming.RoleKind
	AssumePolicy      string
	PermissionsPolicy string
}

// RoleProvisioner creates a role plus one auto-named managed policy. It never
// retries; propagation handling belongs to the orchestrator.
type RoleProvisioner struct {
	iam    awsfacade.IAMAPI
	logger zerolog.Logger
}

func NewRoleProvisioner(client awsfacade.IAMAPI, logger zerolog.Logger) *RoleProvisioner {
	return &RoleProvisioner{iam: client, logger: logger}
}

// CreateRoleAndPolicy creates the role, creates its policy, attaches the
// policy and returns the role ARN.
func (p *RoleProvisioner) CreateRoleAndPolicy(ctx context.Context, spec RoleSpec) (string, error) {
	roleName := naming.RoleName(spec.Target, spec.Kind)
	policyName := naming.PolicyName(spec.Target, spec.Kind)
	log := p.logger.With().Str("role", roleName).Str("kind", spec.Kind.String()).Logger()

	log.Info().Msg("creating role")
	role, err := p.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(roleName),
		AssumeRolePolicyDocument: aws.String(spec.AssumePolicy),
	})
	if err != nil {
		return "", fmt.Errorf("creating role %s: %w", roleName, err)
	}
	if role == nil || role.Role == nil || aws.ToString(role.Role.Arn) == "" {
		return "", fmt.Errorf("creating role %s: %w", roleName, ErrMissingARN)
	}
	roleARN := aws.ToString(role.Role.Arn)

	log.Info().Str("policy", policyName).Msg("creating policy")
	pol, err := p.iam.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(spec.PermissionsPolicy),
	})
	if err != nil {
		return "", fmt.Errorf("creating policy %s: %w", policyName, err)
	}
	if pol == nil || pol.Policy == nil || aws.ToString(pol.Policy.Arn) == "" {
		return "", fmt.Errorf("creating policy %s: %w", policyName, ErrMissingARN)
	}
	policyARN := aws.ToString(pol.Policy.Arn)

	if _, err := p.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyARN),
	}); err != nil {
		return "", fmt.Errorf("attaching policy %s to role %s: %w", policyName, roleName, err)
	}

	log.Info().Str("role_arn", roleARN).Msg("role ready")
	return roleARN, nil
}
