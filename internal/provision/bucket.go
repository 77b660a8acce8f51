package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
	"github.com/twinprov/twinprov/internal/naming"
	"github.com/twinprov/twinprov/internal/policy"
)

// legacyRegion is the one region whose CreateBucket call must not carry a
// LocationConstraint.
const legacyRegion = "us-east-1"

const (
	logDeliveryGrantee = "uri=http://acs.amazonaws.com/groups/s3/LogDelivery"
	accessLogPrefix    = "logs/"
)

// BucketPair describes a workspace bucket and its access-log bucket.
type BucketPair struct {
	Name          string
	ARN           string
	LogBucketName string
	// LogDeliveryGranted and LoggingEnabled report the best-effort steps.
	LogDeliveryGranted bool
	LoggingEnabled     bool
}

// BucketProvisioner creates hardened S3 buckets.
type BucketProvisioner struct {
	s3     awsfacade.S3API
	logger zerolog.Logger
}

func NewBucketProvisioner(client awsfacade.S3API, logger zerolog.Logger) *BucketProvisioner {
	return &BucketProvisioner{s3: client, logger: logger}
}

// BucketARN returns the ARN of a bucket in partition.
func BucketARN(partition, name string) string {
	if partition == "" {
		partition = "aws"
	}
	return fmt.Sprintf("arn:%s:s3:::%s", partition, name)
}

// CreateSecuredBucket creates name in region with versioning, a TLS-only
// bucket policy, all public access blocked, AES256 default encryption and an
// open CORS configuration. Any failure is returned as is; settings already
// applied are not rolled back.
func (p *BucketProvisioner) CreateSecuredBucket(ctx context.Context, partition, name, region string) error {
	log := p.logger.With().Str("bucket", name).Logger()
	log.Info().Str("region", region).Msg("creating bucket")

	in := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if region != legacyRegion {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}
	if _, err := p.s3.CreateBucket(ctx, in); err != nil {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}

	if _, err := p.s3.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
		Bucket: aws.String(name),
		VersioningConfiguration: &s3types.VersioningConfiguration{
			Status: s3types.BucketVersioningStatusEnabled,
		},
	}); err != nil {
		return fmt.Errorf("enabling versioning on %s: %w", name, err)
	}

	doc, err := policy.Document(policy.BucketSecureTransport, policy.Params{
		policy.KeyBucketARN: BucketARN(partition, name),
	})
	if err != nil {
		return err
	}
	if _, err := p.s3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(doc),
	}); err != nil {
		return fmt.Errorf("applying bucket policy to %s: %w", name, err)
	}

	if _, err := p.s3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(name),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(true),
			IgnorePublicAcls:      aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(true),
		},
	}); err != nil {
		return fmt.Errorf("blocking public access on %s: %w", name, err)
	}

	if _, err := p.s3.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
		Bucket: aws.String(name),
		ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
			Rules: []s3types.ServerSideEncryptionRule{{
				ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
					SSEAlgorithm: s3types.ServerSideEncryptionAes256,
				},
			}},
		},
	}); err != nil {
		return fmt.Errorf("enabling encryption on %s: %w", name, err)
	}

	if _, err := p.s3.PutBucketCors(ctx, &s3.PutBucketCorsInput{
		Bucket: aws.String(name),
		CORSConfiguration: &s3types.CORSConfiguration{
			CORSRules: []s3types.CORSRule{{
				AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "HEAD"},
				AllowedOrigins: []string{"*"},
				AllowedHeaders: []string{"*"},
				ExposeHeaders:  []string{"ETag"},
			}},
		},
	}); err != nil {
		return fmt.Errorf("applying CORS to %s: %w", name, err)
	}

	log.Info().Msg("bucket secured")
	return nil
}

// CreateWorkspaceBucketPair creates the workspace bucket and its log bucket,
// then wires access logging between them. The log-delivery grant and the
// logging configuration are best effort: their failure is logged and reported
// through the returned flags.
func (p *BucketProvisioner) CreateWorkspaceBucketPair(ctx context.Context, partition string, t naming.Target) (BucketPair, error) {
	pair := BucketPair{
		Name:          naming.BucketName(t),
		LogBucketName: naming.LogBucketName(t),
	}
	pair.ARN = BucketARN(partition, pair.Name)

	if err := p.CreateSecuredBucket(ctx, partition, pair.Name, t.Region); err != nil {
		return BucketPair{}, err
	}
	if err := p.CreateSecuredBucket(ctx, partition, pair.LogBucketName, t.Region); err != nil {
		return BucketPair{}, err
	}

	pair.LogDeliveryGranted = p.grantLogDelivery(ctx, pair.LogBucketName)
	pair.LoggingEnabled = p.enableAccessLogging(ctx, pair.Name, pair.LogBucketName)
	return pair, nil
}

func (p *BucketProvisioner) grantLogDelivery(ctx context.Context, logBucket string) bool {
	_, err := p.s3.PutBucketAcl(ctx, &s3.PutBucketAclInput{
		Bucket:       aws.String(logBucket),
		GrantReadACP: aws.String(logDeliveryGrantee),
		GrantWrite:   aws.String(logDeliveryGrantee),
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("bucket", logBucket).Msg("could not grant log delivery permissions")
		return false
	}
	return true
}

func (p *BucketProvisioner) enableAccessLogging(ctx context.Context, bucket, logBucket string) bool {
	_, err := p.s3.PutBucketLogging(ctx, &s3.PutBucketLoggingInput{
		Bucket: aws.String(bucket),
		BucketLoggingStatus: &s3types.BucketLoggingStatus{
			LoggingEnabled: &s3types.LoggingEnabled{
				TargetBucket: aws.String(logBucket),
				TargetPrefix: aws.String(accessLogPrefix),
			},
		},
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("bucket", bucket).Msg("could not enable access logging")
		return false
	}
	p.logger.Info().Str("bucket", bucket).Str("log_bucket", logBucket).Msg("access logging enabled")
	return true
}
