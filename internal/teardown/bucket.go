package teardown

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/twinprov/twinprov/internal/audit"
	awsfacade "github.com/twinprov/twinprov/internal/aws"
)

// BucketReport lists what a bucket teardown found and removed. In a dry run
// the counts are what would have been deleted.
type BucketReport struct {
	Bucket        string
	Objects       int
	Versions      int
	DeleteMarkers int
	Deleted       bool
	Missing       bool
	LogBucket     *BucketReport
}

// Entries is the number of listed objects, versions and delete markers.
func (r BucketReport) Entries() int {
	return r.Objects + r.Versions + r.DeleteMarkers
}

// DeleteWorkspaceBucketAndLogs empties and deletes bucket. When the bucket
// has access logging enabled, the live logging target is torn down first.
func (e *Engine) DeleteWorkspaceBucketAndLogs(ctx context.Context, bucket string, commit bool) (BucketReport, error) {
	return e.deleteBucketAndLogs(ctx, bucket, commit, map[string]bool{})
}

func (e *Engine) deleteBucketAndLogs(ctx context.Context, bucket string, commit bool, seen map[string]bool) (BucketReport, error) {
	seen[bucket] = true
	report := BucketReport{Bucket: bucket}
	log := e.logger.With().Str("bucket", bucket).Bool("commit", commit).Logger()

	logging, err := e.clients.S3.GetBucketLogging(ctx, &s3.GetBucketLoggingInput{Bucket: aws.String(bucket)})
	switch {
	case awsfacade.KindOf(err) == awsfacade.KindNoSuchBucket:
		log.Info().Msg("bucket does not exist, skipping log bucket lookup")
	case err != nil:
		return report, fmt.Errorf("reading logging configuration of %s: %w", bucket, err)
	case logging.LoggingEnabled != nil:
		target := aws.ToString(logging.LoggingEnabled.TargetBucket)
		if target != "" && !seen[target] {
			log.Info().Str("log_bucket", target).Msg("deleting access-log bucket first")
			logReport, err := e.deleteBucketAndLogs(ctx, target, commit, seen)
			if err != nil {
				return report, err
			}
			report.LogBucket = &logReport
		}
	}

	if err := e.deleteBucket(ctx, log, &report, commit); err != nil {
		if awsfacade.KindOf(err) != awsfacade.KindNoSuchBucket {
			return report, err
		}
		log.Info().Msg("bucket already absent")
		report.Missing = true
	}
	return report, nil
}

// deleteBucket removes every object, version and delete marker, then the
// bucket itself. Listing always runs; deletes only when commit is set.
func (e *Engine) deleteBucket(ctx context.Context, log zerolog.Logger, report *BucketReport, commit bool) error {
	bucket := report.Bucket

	objects := s3.NewListObjectsV2Paginator(e.clients.S3, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for objects.HasMorePages() {
		page, err := objects.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing objects in %s: %w", bucket, err)
		}
		for _, obj := range page.Contents {
			report.Objects++
			if err := e.deleteObject(ctx, log, commit, bucket, aws.ToString(obj.Key), nil); err != nil {
				return err
			}
		}
	}

	versions := s3.NewListObjectVersionsPaginator(e.clients.S3, &s3.ListObjectVersionsInput{Bucket: aws.String(bucket)})
	for versions.HasMorePages() {
		page, err := versions.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing object versions in %s: %w", bucket, err)
		}
		for _, v := range page.Versions {
			report.Versions++
			if err := e.deleteObject(ctx, log, commit, bucket, aws.ToString(v.Key), v.VersionId); err != nil {
				return err
			}
		}
		for _, m := range page.DeleteMarkers {
			report.DeleteMarkers++
			if err := e.deleteObject(ctx, log, commit, bucket, aws.ToString(m.Key), m.VersionId); err != nil {
				return err
			}
		}
	}

	detail := map[string]string{
		"resource": "bucket",
		"bucket":   bucket,
		"entries":  strconv.Itoa(report.Entries()),
	}
	if !commit {
		log.Info().Int("entries", report.Entries()).Msg("dry run: would delete bucket")
		e.recorder.Record(audit.EventDeletionDry, detail)
		return nil
	}
	if _, err := e.clients.S3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("deleting bucket %s: %w", bucket, err)
	}
	report.Deleted = true
	log.Info().Int("entries", report.Entries()).Msg("bucket deleted")
	e.recorder.Record(audit.EventDeletion, detail)
	return nil
}

func (e *Engine) deleteObject(ctx context.Context, log zerolog.Logger, commit bool, bucket, key string, versionID *string) error {
	if !commit {
		log.Info().Str("key", key).Str("version_id", aws.ToString(versionID)).Msg("dry run: would delete object")
		return nil
	}
	if _, err := e.clients.S3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket:    aws.String(bucket),
		Key:       aws.String(key),
		VersionId: versionID,
	}); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", bucket, key, err)
	}
	log.Debug().Str("key", key).Str("version_id", aws.ToString(versionID)).Msg("deleted object")
	return nil
}
