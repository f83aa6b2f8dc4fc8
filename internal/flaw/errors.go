package flaw

import (
	"errors"
	"fmt"
)

// FlawErrorCode represents specific flaw store error types
type FlawErrorCode string

const (
	// ErrorFlawNotFound indicates the requested flaw does not exist
	ErrorFlawNotFound FlawErrorCode = "flaw_not_found"

	// ErrorFlawStore indicates a persistence operation failed
	ErrorFlawStore FlawErrorCode = "flaw_store_failed"

	// ErrorFlawInvalid indicates a flaw failed validation before storage
	ErrorFlawInvalid FlawErrorCode = "flaw_invalid"
)

// FlawError represents errors raised by the flaw store
type FlawError struct {
	Code    FlawErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *FlawError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *FlawError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is comparison by error code
func (e *FlawError) Is(target error) bool {
	var flawErr *FlawError
	if errors.As(target, &flawErr) {
		return e.Code == flawErr.Code
	}
	return false
}

// NewNotFoundError creates an error for a flaw that does not exist
func NewNotFoundError(id string) *FlawError {
	return &FlawError{
		Code:    ErrorFlawNotFound,
		Message: fmt.Sprintf("flaw not found: %s", id),
	}
}

// NewStoreError creates an error for a failed persistence operation
func NewStoreError(operation string, cause error) *FlawError {
	return &FlawError{
		Code:    ErrorFlawStore,
		Message: fmt.Sprintf("store operation %s failed", operation),
		Cause:   cause,
	}
}

// NewInvalidFlawError creates an error for a flaw that failed validation
func NewInvalidFlawError(message string) *FlawError {
	return &FlawError{
		Code:    ErrorFlawInvalid,
		Message: message,
	}
}

// IsNotFoundError checks if an error is a flaw not found error
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrorFlawNotFound)
}

// IsStoreError checks if an error is a store failure
func IsStoreError(err error) bool {
	return hasCode(err, ErrorFlawStore)
}

func hasCode(err error, code FlawErrorCode) bool {
	var flawErr *FlawError
	if errors.As(err, &flawErr) {
		return flawErr.Code == code
	}
	return false
}
