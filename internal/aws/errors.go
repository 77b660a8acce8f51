package aws

import (
	"errors"
	"strings"

	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	tmtypes "github.com/aws/aws-sdk-go-v2/service/iottwinmaker/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrorKind is the semantic class of a remote failure. Callers branch on the
// kind instead of matching error text.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindOther
	// KindRoleNotYetAssumable: TwinMaker rejected a freshly created role
	// because IAM has not propagated it yet.
	KindRoleNotYetAssumable
	// KindBucketNotYetAccessible: TwinMaker could not reach the bucket with
	// the new role, also a propagation symptom.
	KindBucketNotYetAccessible
	KindResourceNotFound
	KindNoSuchBucket
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRoleNotYetAssumable:
		return "role_not_yet_assumable"
	case KindBucketNotYetAccessible:
		return "bucket_not_yet_accessible"
	case KindResourceNotFound:
		return "resource_not_found"
	case KindNoSuchBucket:
		return "no_such_bucket"
	default:
		return "other"
	}
}

// Lowercased fragments of TwinMaker validation messages that signal identity
// propagation lag.
var (
	roleNotAssumablePhrases = []string{
		"cannot assume role",
		"unable to assume role",
		"not authorized to assume role",
		"role cannot be assumed",
	}
	bucketNotAccessiblePhrases = []string{
		"cannot access s3",
		"unable to access s3",
		"cannot access the s3",
		"access s3 bucket",
	}
	bucketMissingPhrases = []string{
		"bucket does not exist",
		"no such bucket",
	}
)

// KindOf classifies err. It understands the typed SDK exceptions and falls back
// to smithy API error codes for anything else.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var validation *tmtypes.ValidationException
	if errors.As(err, &validation) {
		return classifyValidation(validation.ErrorMessage())
	}
	var notFound *tmtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return KindResourceNotFound
	}
	var noEntity *iamtypes.NoSuchEntityException
	if errors.As(err, &noEntity) {
		return KindResourceNotFound
	}
	var noBucket *s3types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return KindNoSuchBucket
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException":
			return classifyValidation(apiErr.ErrorMessage())
		case "ResourceNotFoundException", "NoSuchEntity":
			return KindResourceNotFound
		case "NoSuchBucket":
			return KindNoSuchBucket
		}
		if containsAny(apiErr.ErrorMessage(), bucketMissingPhrases) {
			return KindNoSuchBucket
		}
	}
	return KindOther
}

func classifyValidation(msg string) ErrorKind {
	switch {
	case containsAny(msg, roleNotAssumablePhrases):
		return KindRoleNotYetAssumable
	case containsAny(msg, bucketNotAccessiblePhrases):
		return KindBucketNotYetAccessible
	default:
		return KindOther
	}
}

func containsAny(msg string, phrases []string) bool {
	lower := strings.ToLower(msg)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// IsPropagationLag reports whether err is one of the two TwinMaker validation
// failures caused by a role that has not finished propagating.
func IsPropagationLag(err error) bool {
	k := KindOf(err)
	return k == KindRoleNotYetAssumable || k == KindBucketNotYetAccessible
}
