// Package scope restricts which AWS accounts and regions twinprov may create
// or delete resources in. An empty allow-list imposes no restriction.
package scope

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Limits lists the accounts and regions operations may target.
type Limits struct {
	Accounts []string `mapstructure:"accounts" json:"accounts"`
	Regions  []string `mapstructure:"regions" json:"regions"`
}

// Empty reports whether no restriction is configured.
func (l Limits) Empty() bool {
	return len(l.Accounts) == 0 && len(l.Regions) == 0
}

// Checker evaluates whether a target account and region are allowed.
type Checker struct {
	limits Limits
}

func NewChecker(limits Limits) *Checker {
	return &Checker{limits: limits}
}

// CheckAccount verifies an AWS account ID is allowed.
func (c *Checker) CheckAccount(accountID string) error {
	if len(c.limits.Accounts) == 0 || slices.Contains(c.limits.Accounts, accountID) {
		return nil
	}
	return &Violation{
		Resource: "account:" + accountID,
		Reason:   fmt.Sprintf("account %s is not allowed (allowed: %s)", accountID, strings.Join(c.limits.Accounts, ", ")),
	}
}

// CheckRegion verifies an AWS region is allowed.
func (c *Checker) CheckRegion(region string) error {
	if len(c.limits.Regions) == 0 || slices.Contains(c.limits.Regions, region) {
		return nil
	}
	return &Violation{
		Resource: "region:" + region,
		Reason:   fmt.Sprintf("region %s is not allowed (allowed: %s)", region, strings.Join(c.limits.Regions, ", ")),
	}
}

// Check verifies both the account and the region.
func (c *Checker) Check(accountID, region string) error {
	if err := c.CheckAccount(accountID); err != nil {
		return err
	}
	return c.CheckRegion(region)
}

// Violation is returned for an out-of-scope target.
type Violation struct {
	Resource string
	Reason   string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("scope violation [%s]: %s", v.Resource, v.Reason)
}

// IsViolation checks if err is or wraps a Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}
