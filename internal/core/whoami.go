package core

import (
	"context"
	"fmt"

	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/scope"
)

// Caller describes the identity and region operations would run against.
type Caller struct {
	awsfacade.CallerIdentity
	Region    string
	Partition string
	// ScopeConfigured is false when no account or region allow-list is set.
	ScopeConfigured bool
	// Violation is non-nil when the caller is outside the configured scope.
	Violation error
}

// Whoami resolves the caller identity with the configured credentials and
// checks it against the scope allow-lists. No run is recorded; the STS call
// itself is audited like any other API call.
func (e *Engine) Whoami(ctx context.Context) (Caller, error) {
	clients, err := e.newClients(ctx, awsfacade.Options{
		Credentials: awsfacade.SessionCredentials{Region: e.Config.Region, Profile: e.Config.Profile},
		RatePerSec:  e.Config.RateLimitPerService,
		Logger:      e.Logger,
		Audit:       e.AuditLogger,
		Operator:    "local",
	})
	if err != nil {
		return Caller{}, err
	}
	ident, err := clients.Identity(ctx)
	if err != nil {
		return Caller{}, fmt.Errorf("resolving caller identity: %w", err)
	}

	caller := Caller{
		CallerIdentity:  ident,
		Region:          clients.Region,
		Partition:       ident.Partition(),
		ScopeConfigured: !e.Config.Scope.Empty(),
	}
	if caller.ScopeConfigured {
		caller.Violation = scope.NewChecker(e.Config.Scope).Check(ident.AccountID, clients.Region)
	}
	return caller, nil
}
