package core

import (
	"fmt"
)

type ErrorNotFound struct {
}

func (e ErrorNotFound) Error() string {
	return "Not Found"
}

func NewErrorNotFound() ErrorNotFound {
	return ErrorNotFound{}
}

// ValidationKind names the content rule that failed
type ValidationKind int

const (
	EmptyContent ValidationKind = iota + 1
	TooShort
	TooLong
)

func (k ValidationKind) String() string {
	switch k {
	case EmptyContent:
		return "EmptyContent"
	case TooShort:
		return "TooShort"
	case TooLong:
		return "TooLong"
	default:
		return "Unknown"
	}
}

type ErrorValidation struct {
	Kind ValidationKind
}

func (e ErrorValidation) Error() string {
	switch e.Kind {
	case EmptyContent:
		return "Content cannot be empty"
	case TooShort:
		return fmt.Sprintf("Content must be at least %d characters", MinContentLength)
	case TooLong:
		return fmt.Sprintf("Content must be %d characters or less", MaxContentLength)
	default:
		return "Invalid content"
	}
}

func NewErrorValidation(kind ValidationKind) ErrorValidation {
	return ErrorValidation{Kind: kind}
}

type ErrorNoTimeline struct {
}

func (e ErrorNoTimeline) Error() string {
	return "Timeline is not initialized"
}

func NewErrorNoTimeline() ErrorNoTimeline {
	return ErrorNoTimeline{}
}

type ErrorNotConnected struct {
}

func (e ErrorNotConnected) Error() string {
	return "Wallet is not connected"
}

func NewErrorNotConnected() ErrorNotConnected {
	return ErrorNotConnected{}
}

type ErrorInvalidStateTransition struct {
	Reason string
}

func (e ErrorInvalidStateTransition) Error() string {
	return "Invalid State Transition: " + e.Reason
}

func NewErrorInvalidStateTransition(reason string) ErrorInvalidStateTransition {
	return ErrorInvalidStateTransition{Reason: reason}
}

type ErrorRequestPending struct {
}

func (e ErrorRequestPending) Error() string {
	return "Another request is pending"
}

func NewErrorRequestPending() ErrorRequestPending {
	return ErrorRequestPending{}
}

type ErrorTimeout struct {
}

func (e ErrorTimeout) Error() string {
	return "Request timed out before settlement"
}

func NewErrorTimeout() ErrorTimeout {
	return ErrorTimeout{}
}

// ErrorGateway wraps any remote rejection or transport failure
type ErrorGateway struct {
	Message string
	cause   error
}

func (e *ErrorGateway) Error() string {
	return e.Message
}

func (e *ErrorGateway) Unwrap() error {
	return e.cause
}

func NewErrorGateway(cause error) *ErrorGateway {
	message := "Ledger request failed"
	if cause != nil {
		message = cause.Error()
	}
	return &ErrorGateway{Message: message, cause: cause}
}

type ErrorInvalidArgument struct {
	Message string
}

func (e ErrorInvalidArgument) Error() string {
	return "Invalid Argument: " + e.Message
}

func NewErrorInvalidArgument(message string) ErrorInvalidArgument {
	return ErrorInvalidArgument{Message: message}
}
