package trustboundary

import (
	"errors"
	"fmt"
)

// ErrorCategory categorizes errors for handling and reporting.
type ErrorCategory string

const (
	// ErrCategoryAuth indicates an authentication-class failure. Lookup
	// failures that the outer token-acquisition flow may retry carry this
	// category with the retryable flag set.
	ErrCategoryAuth ErrorCategory = "auth"
	// ErrCategoryNetwork indicates a network-related failure.
	ErrCategoryNetwork ErrorCategory = "network"
	// ErrCategoryValidation indicates invalid input or configuration.
	ErrCategoryValidation ErrorCategory = "validation"
	// ErrCategoryNotFound indicates a resource was not found.
	ErrCategoryNotFound ErrorCategory = "not_found"
	// ErrCategoryInternal indicates an internal error.
	ErrCategoryInternal ErrorCategory = "internal"
)

// TrustBoundaryError is a structured error with category and context.
type TrustBoundaryError struct {
	// Category classifies the error type.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// Provider is the credential variant where the error occurred.
	Provider string

	// Operation is the operation that failed.
	Operation string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates whether the whole flow can be retried.
	Retryable bool

	// Details contains additional error context.
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *TrustBoundaryError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Category, e.Message)
	if e.Provider != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.Provider, e.Category, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *TrustBoundaryError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error's category.
func (e *TrustBoundaryError) Is(target error) bool {
	var tbErr *TrustBoundaryError
	if errors.As(target, &tbErr) {
		return e.Category == tbErr.Category
	}
	return false
}

// NewError creates a new TrustBoundaryError.
func NewError(category ErrorCategory, message string) *TrustBoundaryError {
	return &TrustBoundaryError{
		Category: category,
		Message:  message,
		Details:  make(map[string]interface{}),
	}
}

// WithProvider sets the provider.
func (e *TrustBoundaryError) WithProvider(name string) *TrustBoundaryError {
	e.Provider = name
	return e
}

// WithOperation sets the operation.
func (e *TrustBoundaryError) WithOperation(op string) *TrustBoundaryError {
	e.Operation = op
	return e
}

// WithCause sets the underlying error.
func (e *TrustBoundaryError) WithCause(err error) *TrustBoundaryError {
	e.Cause = err
	return e
}

// WithRetryable marks the error as retryable.
func (e *TrustBoundaryError) WithRetryable(retryable bool) *TrustBoundaryError {
	e.Retryable = retryable
	return e
}

// WithDetail adds a detail to the error.
func (e *TrustBoundaryError) WithDetail(key string, value interface{}) *TrustBoundaryError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common error types

// ErrAuth creates an authentication-class error.
func ErrAuth(message string) *TrustBoundaryError {
	return NewError(ErrCategoryAuth, message)
}

// ErrNetwork creates a network error.
func ErrNetwork(message string) *TrustBoundaryError {
	return NewError(ErrCategoryNetwork, message).WithRetryable(true)
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *TrustBoundaryError {
	return NewError(ErrCategoryValidation, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(resourceType, resourceID string) *TrustBoundaryError {
	return NewError(ErrCategoryNotFound, fmt.Sprintf("%s not found: %s", resourceType, resourceID))
}

// ErrInternal creates an internal error.
func ErrInternal(message string) *TrustBoundaryError {
	return NewError(ErrCategoryInternal, message)
}

// IsCategory checks if an error is of a specific category.
func IsCategory(err error, category ErrorCategory) bool {
	var tbErr *TrustBoundaryError
	if errors.As(err, &tbErr) {
		return tbErr.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var tbErr *TrustBoundaryError
	if errors.As(err, &tbErr) {
		return tbErr.Retryable
	}
	return false
}
