// Package errors provides structured error types for mtxspy.
//
// Every failure that can terminate the processing of one matrix carries a
// machine-readable [Code]. Batch callers use the code to report a failure
// and move on to the next matrix; the HTTP service maps codes to status
// codes.
//
// # Error Codes
//
//   - MALFORMED_INPUT: a coordinate is out of bounds, or a header or entry
//     line does not parse
//   - EMPTY_MATRIX: the matrix has no nonzeros, so its density is undefined
//   - INVALID_WINDOW: the logarithmic normalization window is degenerate
//   - INVALID_OPTION: a configuration value is outside its domain
//   - FILE_NOT_FOUND, UNSUPPORTED, INTERNAL_ERROR
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedInput, "row %d out of range [0,%d)", row, m)
//	if errors.Is(err, errors.ErrCodeMalformedInput) {
//	    // report and continue with the next matrix
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeMalformedInput Code = "MALFORMED_INPUT"
	ErrCodeEmptyMatrix    Code = "EMPTY_MATRIX"
	ErrCodeInvalidWindow  Code = "INVALID_WINDOW"
	ErrCodeInvalidOption  Code = "INVALID_OPTION"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for the outermost *Error and compares
// its code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err is one of the per-matrix input failures
// (malformed input, empty matrix, degenerate window). These are the failures
// a batch run reports and skips.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedInput, ErrCodeEmptyMatrix, ErrCodeInvalidWindow:
		return true
	}
	return false
}
