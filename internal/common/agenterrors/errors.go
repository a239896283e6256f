// Package agenterrors contains generic errors returned by the agent's collectors
// and startup code. Callers should use errors.As to detect specific types, since
// errors are typically wrapped with a stack trace via github.com/pkg/errors.
//
// If multiple errors occur in some function, that function should return an error
// of type multierror.Error from package github.com/hashicorp/go-multierror that
// encapsulates those individual errors.
package agenterrors

import (
	"fmt"
)

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "hiccup.resolution"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrClockUnavailable indicates the runtime could not provide a monotonic clock
// reading at startup. Timing is the product, so this is fatal for the whole agent.
type ErrClockUnavailable struct {
	Message string
}

func (err *ErrClockUnavailable) Error() string {
	if err.Message == "" {
		return "monotonic clock unavailable"
	}
	return fmt.Sprintf("monotonic clock unavailable; %s", err.Message)
}

// ErrSamplerDegraded indicates the hiccup sampler stopped itself after too many
// consecutive sleep failures. The agent keeps running; the sampler does not restart.
type ErrSamplerDegraded struct {
	ConsecutiveFailures int
}

func (err *ErrSamplerDegraded) Error() string {
	return fmt.Sprintf("sampler degraded after %d consecutive sleep failures", err.ConsecutiveFailures)
}
