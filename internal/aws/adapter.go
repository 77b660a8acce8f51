// Package aws provides the AWS SDK v2 facade used by provisioning and teardown:
// narrow per-service client interfaces, rate limiting, audit logging of every
// call and classification of remote errors.
package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iottwinmaker"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
	"github.com/twinprov/twinprov/internal/audit"
)

// SessionCredentials holds optional static credential material. When
// AccessKeyID is empty the default credential chain (env, profile, IMDS) is used.
type SessionCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	Profile         string
}

// Options configures NewClients.
type Options struct {
	Credentials SessionCredentials
	RatePerSec  int
	Logger      zerolog.Logger
	Audit       *audit.Logger
	RunUUID     string
	// Operator is recorded on every api_call audit event; "local" when empty.
	Operator string
}

// Clients is the process-wide facade handed to provisioners and teardown. It is
// constructed explicitly and passed in, so tests substitute fakes per field.
type Clients struct {
	IAM       IAMAPI
	S3        S3API
	TwinMaker TwinMakerAPI
	STS       STSAPI
	Region    string
}

// CallerIdentity is the result of sts:GetCallerIdentity.
type CallerIdentity struct {
	AccountID string
	ARN       string
	UserID    string
}

// NewClients loads the AWS configuration and builds every service client. SDK
// level retries are disabled: the only retry in this tool is the workspace
// creation loop in the provisioner.
func NewClients(ctx context.Context, opts Options) (*Clients, error) {
	creds := opts.Credentials
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if creds.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(creds.Region))
	}
	if creds.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(creds.Profile))
	}
	if creds.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("no region configured; set --region, TWINPROV_REGION or AWS_REGION")
	}

	rate := opts.RatePerSec
	if rate <= 0 {
		rate = 10
	}
	hooks := &callHooks{
		rateLimiter: NewRateLimiter(rate),
		logger:      opts.Logger,
		auditLogger: opts.Audit,
		runUUID:     opts.RunUUID,
		operator:    opts.Operator,
	}
	cfg.APIOptions = append(cfg.APIOptions, hooks.register)

	return &Clients{
		IAM:       iam.NewFromConfig(cfg),
		S3:        s3.NewFromConfig(cfg),
		TwinMaker: iottwinmaker.NewFromConfig(cfg),
		STS:       sts.NewFromConfig(cfg),
		Region:    cfg.Region,
	}, nil
}

// Identity performs sts:GetCallerIdentity.
func (c *Clients) Identity(ctx context.Context) (CallerIdentity, error) {
	out, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return CallerIdentity{}, fmt.Errorf("GetCallerIdentity: %w", err)
	}
	id := CallerIdentity{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
		UserID:    aws.ToString(out.UserId),
	}
	if id.AccountID == "" || id.ARN == "" {
		return CallerIdentity{}, fmt.Errorf("GetCallerIdentity: response missing account or arn")
	}
	return id, nil
}

// Partition returns the ARN partition of the caller, defaulting to "aws".
func (id CallerIdentity) Partition() string {
	return PartitionOf(id.ARN)
}

// PrincipalARN returns an ARN usable as a trust-policy principal. STS
// assumed-role session ARNs are mapped back to their IAM role ARN; role paths
// are not recoverable from a session ARN.
func (id CallerIdentity) PrincipalARN() string {
	parts := strings.SplitN(id.ARN, ":", 6)
	if len(parts) != 6 || parts[2] != "sts" {
		return id.ARN
	}
	resource := strings.Split(parts[5], "/")
	if len(resource) < 2 || resource[0] != "assumed-role" {
		return id.ARN
	}
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", parts[1], parts[4], resource[1])
}

// PartitionOf extracts the partition segment of an ARN.
func PartitionOf(arn string) string {
	parts := strings.SplitN(arn, ":", 3)
	if len(parts) < 3 || parts[0] != "arn" || parts[1] == "" {
		return "aws"
	}
	return parts[1]
}

// callHooks rate-limits every SDK call per service and records it to the
// structured logger and the audit chain.
type callHooks struct {
	rateLimiter *RateLimiter
	logger      zerolog.Logger
	auditLogger *audit.Logger
	runUUID     string
	operator    string
}

func (h *callHooks) register(stack *middleware.Stack) error {
	return stack.Initialize.Add(middleware.InitializeMiddlewareFunc("TwinprovCallHooks",
		func(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (middleware.InitializeOutput, middleware.Metadata, error) {
			service := awsmiddleware.GetServiceID(ctx)
			operation := awsmiddleware.GetOperationName(ctx)

			h.rateLimiter.Wait(service)
			out, md, err := next.HandleInitialize(ctx, in)
			h.logAPICall(service, operation, err)
			return out, md, err
		}), middleware.After)
}

// logAPICall records an API call to both the structured logger and the audit database.
func (h *callHooks) logAPICall(service, operation string, err error) {
	ev := h.logger.Debug().Str("service", service).Str("operation", operation)
	if err != nil {
		ev = ev.Str("error_kind", KindOf(err).String())
	}
	ev.Msg("aws api call")

	if h.auditLogger != nil {
		detail := map[string]string{
			"service":   service,
			"operation": operation,
		}
		if err != nil {
			detail["error"] = err.Error()
		}
		operator := h.operator
		if operator == "" {
			operator = "local"
		}
		if aerr := h.auditLogger.Log(audit.EventAPICall, operator, h.runUUID, detail); aerr != nil {
			h.logger.Warn().Err(aerr).Msg("audit write failed")
		}
	}
}

// --- Rate Limiter ---

// RateLimiter spaces calls to the same service at least 1/ratePerSec apart.
type RateLimiter struct {
	mu         sync.Mutex
	ratePerSec int
	lastCall   map[string]time.Time
}

func NewRateLimiter(ratePerSec int) *RateLimiter {
	return &RateLimiter{
		ratePerSec: ratePerSec,
		lastCall:   make(map[string]time.Time),
	}
}

func (rl *RateLimiter) Wait(service string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	minInterval := time.Second / time.Duration(rl.ratePerSec)
	last, ok := rl.lastCall[service]
	if ok {
		elapsed := time.Since(last)
		if elapsed < minInterval {
			time.Sleep(minInterval - elapsed)
		}
	}
	rl.lastCall[service] = time.Now()
}
