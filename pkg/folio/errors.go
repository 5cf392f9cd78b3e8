package folio

import (
	"errors"
	"fmt"
)

// ErrorCode defines error classification codes for structured error handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeAccessDenied         ErrorCode = "ACCESS_DENIED"
	ErrCodeInsufficientQuantity ErrorCode = "INSUFFICIENT_QUANTITY"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicate            ErrorCode = "DUPLICATE"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeDatabase             ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with classification code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with classification code and additional context.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsErrorCode checks if an error matches a specific error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the classification code of err, or ErrCodeInternal for
// errors that carry none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// InsufficientQuantityError carries the amounts of a rejected sell.
type InsufficientQuantityError struct {
	Available Amount
	Requested Amount
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("available %s, requested %s", e.Available.String(), e.Requested.String())
}

func newInsufficientQuantity(available, requested Amount) *Error {
	return &Error{
		Code: ErrCodeInsufficientQuantity,
		Message: fmt.Sprintf("Insufficient quantity. You have %s units but tried to sell %s.",
			available.String(), requested.String()),
		Err: &InsufficientQuantityError{Available: available, Requested: requested},
	}
}

func notFound(entity string) *Error {
	return NewError(ErrCodeNotFound, entity+" not found")
}

func accessDenied() *Error {
	return NewError(ErrCodeAccessDenied, "Access denied")
}

func validationError(format string, args ...any) *Error {
	return NewError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

func dbError(message string, err error) *Error {
	return WrapError(ErrCodeDatabase, message, err)
}
