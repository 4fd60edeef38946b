package services

import (
	"errors"

	"cif-onboarding/internal/core/domain"
)

// internalErrorMessage is the only text shown for infrastructure failures
const internalErrorMessage = "internal error"

// Result is the envelope returned by onboarding and back-office write operations.
//
//	Err != nil                  infrastructure failure, Message is generic
//	!Succeeded && Err == nil    business rule rejection, Reason holds the rule
//	Succeeded                   Data holds the outcome
type Result[T any] struct {
	Succeeded bool
	Message   string
	Data      *T
	Reason    error
	Err       error
}

// Succeed builds a successful result
func Succeed[T any](message string, data *T) Result[T] {
	return Result[T]{Succeeded: true, Message: message, Data: data}
}

// Rejected builds a business rule rejection; the reason text is user-facing
func Rejected[T any](reason error, data *T) Result[T] {
	return Result[T]{Message: reason.Error(), Data: data, Reason: reason}
}

// Fault builds an infrastructure failure; err is kept for logging only
func Fault[T any](err error) Result[T] {
	return Result[T]{Message: internalErrorMessage, Err: err}
}

// resultOf classifies err into the envelope
func resultOf[T any](err error, message string, data *T) Result[T] {
	switch {
	case err == nil:
		return Succeed(message, data)
	case domain.IsBusinessRule(err):
		return Rejected(err, data)
	default:
		return Fault[T](err)
	}
}

// IsNotFound reports whether the result rejected a missing record
func (r Result[T]) IsNotFound() bool {
	return errors.Is(r.Reason, domain.ErrRecordNotFound)
}

// outcomeLabel names the result for metrics
func (r Result[T]) outcomeLabel() string {
	switch {
	case r.Succeeded:
		return "succeeded"
	case r.Err != nil:
		return "failed"
	case errors.Is(r.Reason, domain.ErrStageAlreadyPassed):
		return "noop"
	}
	return "rejected"
}
