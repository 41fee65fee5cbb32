package aws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

var (
	// ErrCredentialsMissing is returned when an environment has no access key
	// and secret configured.
	ErrCredentialsMissing = errors.New("aws credentials not configured")
	// ErrUpstream marks failures returned by an AWS API.
	ErrUpstream = errors.New("aws request failed")
	// ErrStackNotFound is returned when a stack does not exist.
	ErrStackNotFound = errors.New("stack not found")
	// ErrStackExists is returned when creating a stack whose name is taken.
	ErrStackExists = errors.New("stack already exists")
)

// UpstreamError wraps an SDK error with the call that produced it.
type UpstreamError struct {
	Service   string
	Operation string
	Code      string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports ErrUpstream for every UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func upstream(service, operation string, err error) error {
	ue := &UpstreamError{Service: service, Operation: operation, Err: err}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		ue.Code = ae.ErrorCode()
	}
	return ue
}

// isStackMissing matches CloudFormation's ValidationError for unknown stacks.
func isStackMissing(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ValidationError" &&
		strings.Contains(ae.ErrorMessage(), "does not exist")
}

func isAlreadyExists(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "AlreadyExistsException"
}
