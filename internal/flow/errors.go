package flow

import (
	"errors"
	"fmt"
)

// FlowError represents an error detected while driving a flow session.
//
// FlowError includes structured fields for diagnostics; wrapping preserves
// the underlying store error for persistence failures.
type FlowError struct {
	// Code identifies the error category.
	Code FlowErrorCode

	// Message is a human-readable description.
	Message string

	// Context identifies the affected flow context.
	Context string

	// QuestionKey identifies the affected question, when applicable.
	QuestionKey string

	// Err is the underlying error, when one exists.
	Err error
}

// FlowErrorCode categorizes flow session errors.
type FlowErrorCode string

const (
	// ErrCodeNotHydrated indicates an operation ran before Initialize.
	ErrCodeNotHydrated FlowErrorCode = "NOT_HYDRATED"

	// ErrCodeUnknownQuestion indicates an answer for a key the context
	// does not define.
	ErrCodeUnknownQuestion FlowErrorCode = "UNKNOWN_QUESTION"

	// ErrCodeFlowIncomplete indicates Finish was called before the last
	// applicable question was answered.
	ErrCodeFlowIncomplete FlowErrorCode = "FLOW_INCOMPLETE"

	// ErrCodeSessionComplete indicates a mutation on a finished session.
	ErrCodeSessionComplete FlowErrorCode = "SESSION_COMPLETE"

	// ErrCodePersistence indicates a store operation failed. The
	// optimistic cache write is NOT reverted.
	ErrCodePersistence FlowErrorCode = "PERSISTENCE"
)

// Error implements the error interface.
func (e *FlowError) Error() string {
	switch {
	case e.QuestionKey != "":
		return fmt.Sprintf("%s: %s (context=%s, question=%s)", e.Code, e.Message, e.Context, e.QuestionKey)
	case e.Context != "":
		return fmt.Sprintf("%s: %s (context=%s)", e.Code, e.Message, e.Context)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *FlowError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a FlowError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code FlowErrorCode) bool {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

func newNotHydratedError(flowContext string) *FlowError {
	return &FlowError{
		Code:    ErrCodeNotHydrated,
		Message: "session is not hydrated, call Initialize first",
		Context: flowContext,
	}
}

func newUnknownQuestionError(flowContext, key string) *FlowError {
	return &FlowError{
		Code:        ErrCodeUnknownQuestion,
		Message:     "no question with this key in context",
		Context:     flowContext,
		QuestionKey: key,
	}
}

func newFlowIncompleteError(flowContext, key string) *FlowError {
	return &FlowError{
		Code:        ErrCodeFlowIncomplete,
		Message:     "last applicable question is unanswered",
		Context:     flowContext,
		QuestionKey: key,
	}
}

func newSessionCompleteError(flowContext string) *FlowError {
	return &FlowError{
		Code:    ErrCodeSessionComplete,
		Message: "session already finished",
		Context: flowContext,
	}
}

func newPersistenceError(flowContext, key string, err error) *FlowError {
	return &FlowError{
		Code:        ErrCodePersistence,
		Message:     "store operation failed",
		Context:     flowContext,
		QuestionKey: key,
		Err:         err,
	}
}
