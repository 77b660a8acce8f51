package teardown

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/twinprov/twinprov/internal/audit"
)

// RoleAttachments is everything that must be removed before a role can be
// deleted.
type RoleAttachments struct {
	Role             string
	InstanceProfiles []string
	InlinePolicies   []string
	ManagedPolicies  []string
}

// RoleReport is the outcome of one role teardown.
type RoleReport struct {
	Name        string
	Attachments RoleAttachments
	Deleted     bool
	Missing     bool
}

// isAWSManaged reports whether arn names a policy owned by AWS. Those can be
// detached but never deleted.
func isAWSManaged(arn string) bool {
	return strings.Contains(arn, ":iam::aws:policy/")
}

// PlanRoleDeletion lists a role's instance profiles, inline policies and
// attached managed policies without changing anything.
func (e *Engine) PlanRoleDeletion(ctx context.Context, roleName string) (RoleAttachments, error) {
	plan := RoleAttachments{Role: roleName}
	var err error
	if plan.InstanceProfiles, err = e.listInstanceProfiles(ctx, roleName); err != nil {
		return plan, err
	}
	if plan.InlinePolicies, err = e.listInlinePolicies(ctx, roleName); err != nil {
		return plan, err
	}
	if plan.ManagedPolicies, err = e.listAttachedPolicies(ctx, roleName); err != nil {
		return plan, err
	}
	return plan, nil
}

// DeleteRoleAndPolicies deletes a role after removing it from every instance
// profile, deleting its inline policies and detaching its managed policies.
// Customer-managed policies are deleted once detached.
func (e *Engine) DeleteRoleAndPolicies(ctx context.Context, roleName string) error {
	log := e.logger.With().Str("role", roleName).Logger()

	profiles, err := e.listInstanceProfiles(ctx, roleName)
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		log.Info().Str("instance_profile", profile).Msg("removing role from instance profile")
		if _, err := e.clients.IAM.RemoveRoleFromInstanceProfile(ctx, &iam.RemoveRoleFromInstanceProfileInput{
			InstanceProfileName: aws.String(profile),
			RoleName:            aws.String(roleName),
		}); err != nil {
			return fmt.Errorf("removing role %s from instance profile %s: %w", roleName, profile, err)
		}
	}

	inline, err := e.listInlinePolicies(ctx, roleName)
	if err != nil {
		return err
	}
	for _, name := range inline {
		log.Info().Str("policy", name).Msg("deleting inline policy")
		if _, err := e.clients.IAM.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
			RoleName:   aws.String(roleName),
			PolicyName: aws.String(name),
		}); err != nil {
			return fmt.Errorf("deleting inline policy %s of role %s: %w", name, roleName, err)
		}
	}

	attached, err := e.listAttachedPolicies(ctx, roleName)
	if err != nil {
		return err
	}
	for _, arn := range attached {
		log.Info().Str("policy_arn", arn).Msg("detaching managed policy")
		if _, err := e.clients.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  aws.String(roleName),
			PolicyArn: aws.String(arn),
		}); err != nil {
			return fmt.Errorf("detaching policy %s from role %s: %w", arn, roleName, err)
		}
		if isAWSManaged(arn) {
			log.Info().Str("policy_arn", arn).Msg("keeping AWS managed policy")
			continue
		}
		if _, err := e.clients.IAM.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: aws.String(arn)}); err != nil {
			return fmt.Errorf("deleting policy %s: %w", arn, err)
		}
		e.recorder.Record(audit.EventDeletion, map[string]string{"resource": "policy", "policy_arn": arn})
	}

	log.Info().Msg("deleting role")
	if _, err := e.clients.IAM.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(roleName)}); err != nil {
		return fmt.Errorf("deleting role %s: %w", roleName, err)
	}
	e.recorder.Record(audit.EventDeletion, map[string]string{"resource": "role", "role": roleName})
	return nil
}

func (e *Engine) listInstanceProfiles(ctx context.Context, roleName string) ([]string, error) {
	var names []string
	paginator := iam.NewListInstanceProfilesForRolePaginator(e.clients.IAM, &iam.ListInstanceProfilesForRoleInput{
		RoleName: aws.String(roleName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing instance profiles of role %s: %w", roleName, err)
		}
		for _, p := range page.InstanceProfiles {
			names = append(names, aws.ToString(p.InstanceProfileName))
		}
	}
	return names, nil
}

func (e *Engine) listInlinePolicies(ctx context.Context, roleName string) ([]string, error) {
	var names []string
	paginator := iam.NewListRolePoliciesPaginator(e.clients.IAM, &iam.ListRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing inline policies of role %s: %w", roleName, err)
		}
		names = append(names, page.PolicyNames...)
	}
	return names, nil
}

func (e *Engine) listAttachedPolicies(ctx context.Context, roleName string) ([]string, error) {
	var arns []string
	paginator := iam.NewListAttachedRolePoliciesPaginator(e.clients.IAM, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing attached policies of role %s: %w", roleName, err)
		}
		for _, p := range page.AttachedPolicies {
			arns = append(arns, aws.ToString(p.PolicyArn))
		}
	}
	return arns, nil
}
