package common

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrorKind classifies an AWS API error for collection decisions.
type ErrorKind string

const (
	ErrorKindNone         ErrorKind = ""
	ErrorKindNotFound     ErrorKind = "not_found"
	ErrorKindAccessDenied ErrorKind = "access_denied"
	ErrorKindThrottled    ErrorKind = "throttled"
	ErrorKindOther        ErrorKind = "other"
)

var errorKinds = map[string]ErrorKind{
	"NoSuchEntity":                  ErrorKindNotFound,
	"NoSuchBucketPolicy":            ErrorKindNotFound,
	"NoSuchTagSet":                  ErrorKindNotFound,
	"NoSuchTagSetError":             ErrorKindNotFound,
	"NoSuchBucket":                  ErrorKindNotFound,
	"AccessDenied":                  ErrorKindAccessDenied,
	"AccessDeniedException":         ErrorKindAccessDenied,
	"UnauthorizedOperation":         ErrorKindAccessDenied,
	"AuthorizationError":            ErrorKindAccessDenied,
	"Throttling":                    ErrorKindThrottled,
	"ThrottlingException":           ErrorKindThrottled,
	"RequestLimitExceeded":          ErrorKindThrottled,
	"TooManyRequestsException":      ErrorKindThrottled,
	"SlowDown":                      ErrorKindThrottled,
	"ProvisionedThroughputExceeded": ErrorKindThrottled,
}

// Classify maps err onto an ErrorKind using the smithy API error code.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := errorKinds[apiErr.ErrorCode()]; ok {
			return kind
		}
	}
	return ErrorKindOther
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool { return Classify(err) == ErrorKindNotFound }

// IsAccessDenied reports whether err is an authorization failure.
func IsAccessDenied(err error) bool { return Classify(err) == ErrorKindAccessDenied }
