// Package testutil holds in-memory fakes of the remote services for package tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ObjectVersion is one entry of a versioned bucket listing.
type ObjectVersion struct {
	Key          string
	VersionID    string
	DeleteMarker bool
}

// FakeBucket records the state and settings applied to one bucket.
type FakeBucket struct {
	Name     string
	Region   string
	Objects  []string
	Versions []ObjectVersion

	Versioning        *s3types.VersioningConfiguration
	Policy            string
	PublicAccessBlock *s3types.PublicAccessBlockConfiguration
	Encryption        *s3types.ServerSideEncryptionConfiguration
	CORS              *s3types.CORSConfiguration
	GrantReadACP      string
	GrantWrite        string
	Logging           *s3types.LoggingEnabled
}

// FakeS3 is an in-memory S3API. Every call is appended to Calls as
// "Operation:bucket" so tests can assert on ordering and counts.
type FakeS3 struct {
	mu       sync.Mutex
	Buckets  map[string]*FakeBucket
	Calls    []string
	Created  []*s3.CreateBucketInput
	PageSize int
	// FailOn maps "Operation" or "Operation:bucket" to an injected error.
	FailOn map[string]error
}

// NewFakeS3 returns an empty fake with a page size of 2 so pagination is
// exercised by small fixtures.
func NewFakeS3() *FakeS3 {
	return &FakeS3{
		Buckets:  make(map[string]*FakeBucket),
		PageSize: 2,
		FailOn:   make(map[string]error),
	}
}

// AddBucket seeds a bucket with current objects and versions.
func (f *FakeS3) AddBucket(name string, objects []string, versions []ObjectVersion) *FakeBucket {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &FakeBucket{Name: name, Objects: objects, Versions: versions}
	f.Buckets[name] = b
	return b
}

// Count returns how many calls of op were made.
func (f *FakeS3) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op || len(c) > len(op) && c[:len(op)+1] == op+":" {
			n++
		}
	}
	return n
}

// NoSuchBucket builds the error S3 returns for a missing bucket.
func NoSuchBucket() error {
	return &s3types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
}

func (f *FakeS3) record(op, bucket string) (*FakeBucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op+":"+bucket)
	if err, ok := f.FailOn[op+":"+bucket]; ok {
		return nil, err
	}
	if err, ok := f.FailOn[op]; ok {
		return nil, err
	}
	b, ok := f.Buckets[bucket]
	if !ok {
		return nil, NoSuchBucket()
	}
	return b, nil
}

func (f *FakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	name := aws.ToString(in.Bucket)
	f.mu.Lock()
	f.Calls = append(f.Calls, "CreateBucket:"+name)
	f.Created = append(f.Created, in)
	for _, k := range []string{"CreateBucket:" + name, "CreateBucket"} {
		if err, ok := f.FailOn[k]; ok {
			f.mu.Unlock()
			return nil, err
		}
	}
	if _, exists := f.Buckets[name]; exists {
		f.mu.Unlock()
		return nil, &s3types.BucketAlreadyOwnedByYou{Message: aws.String("bucket already owned by you")}
	}
	b := &FakeBucket{Name: name, Region: "us-east-1"}
	if in.CreateBucketConfiguration != nil {
		b.Region = string(in.CreateBucketConfiguration.LocationConstraint)
	}
	f.Buckets[name] = b
	f.mu.Unlock()
	return &s3.CreateBucketOutput{Location: aws.String("/" + name)}, nil
}

func (f *FakeS3) PutBucketVersioning(_ context.Context, in *s3.PutBucketVersioningInput, _ ...func(*s3.Options)) (*s3.PutBucketVersioningOutput, error) {
	b, err := f.record("PutBucketVersioning", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	b.Versioning = in.VersioningConfiguration
	return &s3.PutBucketVersioningOutput{}, nil
}

func (f *FakeS3) PutBucketPolicy(_ context.Context, in *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	b, err := f.record("PutBucketPolicy", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	b.Policy = aws.ToString(in.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}

func (f *FakeS3) PutPublicAccessBlock(_ context.Context, in *s3.PutPublicAccessBlockInput, _ ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error) {
	b, err := f.record("PutPublicAccessBlock", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	b.PublicAccessBlock = in.PublicAccessBlockConfiguration
	return &s3.PutPublicAccessBlockOutput{}, nil
}

func (f *FakeS3) PutBucketEncryption(_ context.Context, in *s3.PutBucketEncryptionInput, _ ...func(*s3.Options)) (*s3.PutBucketEncryptionOutput, error) {
	b, err := f.record("PutBucketEncryption", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	b.Encryption = in.ServerSideEncryptionConfiguration
	return &s3.PutBucketEncryptionOutput{}, nil
}

func (f *FakeS3) PutBucketCors(_ context.Context, in *s3.PutBucketCorsInput, _ ...func(*s3.Options)) (*s3.PutBucketCorsOutput, error) {
	b, err := f.record("PutBucketCors", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	b.CORS = in.CORSConfiguration
	return &s3.PutBucketCorsOutput{}, nil
}

func (f *FakeS3) PutBucketAcl(_ context.Context, in *s3.PutBucketAclInput, _ ...func(*s3.Options)) (*s3.PutBucketAclOutput, error) {
	b, err := f.record("PutBucketAcl", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	b.GrantReadACP = aws.ToString(in.GrantReadACP)
	b.GrantWrite = aws.ToString(in.GrantWrite)
	return &s3.PutBucketAclOutput{}, nil
}

func (f *FakeS3) PutBucketLogging(_ context.Context, in *s3.PutBucketLoggingInput, _ ...func(*s3.Options)) (*s3.PutBucketLoggingOutput, error) {
	b, err := f.record("PutBucketLogging", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	if in.BucketLoggingStatus != nil {
		b.Logging = in.BucketLoggingStatus.LoggingEnabled
	}
	return &s3.PutBucketLoggingOutput{}, nil
}

func (f *FakeS3) GetBucketLogging(_ context.Context, in *s3.GetBucketLoggingInput, _ ...func(*s3.Options)) (*s3.GetBucketLoggingOutput, error) {
	b, err := f.record("GetBucketLogging", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	return &s3.GetBucketLoggingOutput{LoggingEnabled: b.Logging}, nil
}

func (f *FakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	b, err := f.record("ListObjectsV2", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := append([]string(nil), b.Objects...)
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		marker := aws.ToString(in.ContinuationToken)
		start = sort.Search(len(keys), func(i int) bool { return keys[i] > marker })
	}
	end := min(start+f.PageSize, len(keys))
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

func versionAfter(v ObjectVersion, key, versionID string) bool {
	return v.Key > key || v.Key == key && v.VersionID > versionID
}

func (f *FakeS3) ListObjectVersions(_ context.Context, in *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	b, err := f.record("ListObjectVersions", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	versions := append([]ObjectVersion(nil), b.Versions...)
	sort.Slice(versions, func(i, j int) bool {
		return versionAfter(versions[j], versions[i].Key, versions[i].VersionID)
	})
	start := 0
	if in.KeyMarker != nil {
		key, versionID := aws.ToString(in.KeyMarker), aws.ToString(in.VersionIdMarker)
		start = sort.Search(len(versions), func(i int) bool { return versionAfter(versions[i], key, versionID) })
	}
	end := min(start+f.PageSize, len(versions))
	out := &s3.ListObjectVersionsOutput{IsTruncated: aws.Bool(end < len(versions))}
	for _, v := range versions[start:end] {
		if v.DeleteMarker {
			out.DeleteMarkers = append(out.DeleteMarkers, s3types.DeleteMarkerEntry{Key: aws.String(v.Key), VersionId: aws.String(v.VersionID)})
		} else {
			out.Versions = append(out.Versions, s3types.ObjectVersion{Key: aws.String(v.Key), VersionId: aws.String(v.VersionID)})
		}
	}
	if end < len(versions) {
		last := versions[end-1]
		out.NextKeyMarker = aws.String(last.Key)
		out.NextVersionIdMarker = aws.String(last.VersionID)
	}
	return out, nil
}

func (f *FakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	b, err := f.record("DeleteObject", aws.ToString(in.Bucket))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(in.Key)
	if in.VersionId == nil {
		for i, k := range b.Objects {
			if k == key {
				b.Objects = append(b.Objects[:i], b.Objects[i+1:]...)
				break
			}
		}
		return &s3.DeleteObjectOutput{}, nil
	}
	for i, v := range b.Versions {
		if v.Key == key && v.VersionID == aws.ToString(in.VersionId) {
			b.Versions = append(b.Versions[:i], b.Versions[i+1:]...)
			break
		}
	}
	return &s3.DeleteObjectOutput{VersionId: in.VersionId}, nil
}

func (f *FakeS3) DeleteBucket(_ context.Context, in *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	name := aws.ToString(in.Bucket)
	b, err := f.record("DeleteBucket", name)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(b.Objects) > 0 || len(b.Versions) > 0 {
		return nil, &smithy.GenericAPIError{Code: "BucketNotEmpty", Message: "The bucket you tried to delete is not empty"}
	}
	delete(f.Buckets, name)
	return &s3.DeleteBucketOutput{}, nil
}
