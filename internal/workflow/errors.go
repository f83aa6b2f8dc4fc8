package workflow

import (
	"errors"
	"fmt"
)

// WorkflowErrorCode represents specific error codes for classification operations
type WorkflowErrorCode string

const (
	ErrorMalformedRequirement WorkflowErrorCode = "malformed_requirement"
	ErrorUnknownProperty      WorkflowErrorCode = "unknown_property"
	ErrorNoAcceptingWorkflow  WorkflowErrorCode = "no_accepting_workflow"
	ErrorNoAcceptingState     WorkflowErrorCode = "no_accepting_state"
	ErrorInvalidDefinition    WorkflowErrorCode = "invalid_definition"
)

// WorkflowError represents a domain-specific error raised by the
// classification engine. Malformed requirements surface at Check
// construction; unknown properties surface lazily at first evaluation.
// Both are configuration defects, not per-record runtime conditions.
type WorkflowError struct {
	Code    WorkflowErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause
func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// Is enables error comparison using errors.Is
func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewMalformedRequirementError creates an error for a requirement string
// that does not match the check grammar
func NewMalformedRequirementError(requirement string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrorMalformedRequirement,
		Message: fmt.Sprintf("requirement %q does not match the check grammar", requirement),
	}
}

// NewUnknownPropertyError creates an error for a check target the record
// adapter cannot resolve
func NewUnknownPropertyError(target, requirement string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrorUnknownProperty,
		Message: fmt.Sprintf("property %q referenced by requirement %q is not exposed by the record", target, requirement),
	}
}

// NewNoAcceptingWorkflowError creates an error for a record no registered
// workflow accepts
func NewNoAcceptingWorkflowError() *WorkflowError {
	return &WorkflowError{
		Code:    ErrorNoAcceptingWorkflow,
		Message: "no registered workflow accepts the record; register a default workflow with empty conditions",
	}
}

// NewNoAcceptingStateError creates an error for a workflow whose leading
// state rejects the record
func NewNoAcceptingStateError(workflowName string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrorNoAcceptingState,
		Message: fmt.Sprintf("workflow %q has no accepting state; its first state must carry no requirements", workflowName),
	}
}

// NewInvalidDefinitionError creates an error for an invalid workflow definition
func NewInvalidDefinitionError(message string, cause error) *WorkflowError {
	return &WorkflowError{
		Code:    ErrorInvalidDefinition,
		Message: message,
		Cause:   cause,
	}
}

// IsMalformedRequirementError checks if the error is a malformed requirement error
func IsMalformedRequirementError(err error) bool {
	return hasCode(err, ErrorMalformedRequirement)
}

// IsUnknownPropertyError checks if the error is an unknown property error
func IsUnknownPropertyError(err error) bool {
	return hasCode(err, ErrorUnknownProperty)
}

// IsNoAcceptingWorkflowError checks if the error is a no accepting workflow error
func IsNoAcceptingWorkflowError(err error) bool {
	return hasCode(err, ErrorNoAcceptingWorkflow)
}

// IsNoAcceptingStateError checks if the error is a no accepting state error
func IsNoAcceptingStateError(err error) bool {
	return hasCode(err, ErrorNoAcceptingState)
}

func hasCode(err error, code WorkflowErrorCode) bool {
	var we *WorkflowError
	return errors.As(err, &we) && we.Code == code
}
