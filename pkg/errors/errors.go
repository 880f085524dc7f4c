package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Error categories. Validation and the two blocked codes produce
// structured client responses; generation and storage are opaque faults.
const (
	ErrValidation ErrorCode = iota + 1000
	ErrDuplicateSubmission
	ErrProviderConflict
	ErrGeneration
	ErrStorage
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Messages returns the client-facing error list: field-level details when
// present, otherwise the single top-level message.
func (e *AppError) Messages() []string {
	if len(e.Details) > 0 {
		return e.Details
	}
	return []string{e.Message}
}

// Error constructors
func NewValidation(details []string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: "validation failed",
		Details: details,
	}
}

func NewDuplicateSubmission(reason string) *AppError {
	return &AppError{
		Code:    ErrDuplicateSubmission,
		Message: reason,
	}
}

func NewProviderConflict(reason string) *AppError {
	return &AppError{
		Code:    ErrProviderConflict,
		Message: reason,
	}
}

// NewGeneration carries a generic client message; the backend cause stays
// in Err and must never reach the response body.
func NewGeneration(message string, err error) *AppError {
	return &AppError{
		Code:    ErrGeneration,
		Message: message,
		Err:     err,
	}
}

func NewStorage(err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Message: "storage operation failed",
		Err:     err,
	}
}

// AsAppError unwraps err to an *AppError if there is one in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsBlocked reports whether err is one of the hard-stop business outcomes.
func IsBlocked(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == ErrDuplicateSubmission || appErr.Code == ErrProviderConflict
	}
	return false
}
