// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown errors
//   - Validation errors (100-199): Size mismatches, unsorted inputs, out of range windows
//   - Alignment errors (200-299): Combining series that do not share a time axis
//   - Resampling errors (300-399): Interpolation engine failures
//   - Data errors (400-499): Loading series from an external source
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeUnsortedTarget, "target timestamps must be sorted")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataUnavailable, "no data for symbol %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeOutOfRange) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error or *AlignmentError.
// Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var alignErr *AlignmentError
	if errors.As(err, &alignErr) {
		return alignErr.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// AlignmentError is returned when two operands do not share a time axis.
// Code is ErrCodeLengthMismatch or ErrCodeTimestampMismatch.
type AlignmentError struct {
	Code        ErrorCode
	LeftLength  int // Length of the left operand
	RightLength int // Length of the right operand
	Position    int // First mismatching position, -1 for length mismatches
	Message     string
}

// NewLengthMismatchError creates an AlignmentError for operands of different lengths.
func NewLengthMismatchError(left, right int) *AlignmentError {
	return &AlignmentError{
		Code:        ErrCodeLengthMismatch,
		LeftLength:  left,
		RightLength: right,
		Position:    -1,
		Message:     fmt.Sprintf("size mismatch: %d vs %d", left, right),
	}
}

// NewTimestampMismatchError creates an AlignmentError for operands whose timestamps
// differ at position.
func NewTimestampMismatchError(length, position int, left, right int64) *AlignmentError {
	return &AlignmentError{
		Code:        ErrCodeTimestampMismatch,
		LeftLength:  length,
		RightLength: length,
		Position:    position,
		Message:     fmt.Sprintf("timestamp mismatch at position %d: %d vs %d", position, left, right),
	}
}

// Error implements the error interface.
func (e *AlignmentError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// IsAlignmentError checks if an error is an AlignmentError.
// It uses errors.As to check the error chain.
func IsAlignmentError(err error) bool {
	var alignErr *AlignmentError

	return errors.As(err, &alignErr)
}
