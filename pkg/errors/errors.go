// Package errors provides structured error types for aarunpack.
//
// Every fatal condition of a run carries a machine-readable [Code] so callers
// can tell a malformed coordinate apart from a repository miss, a broken
// archive, or an archive that simply lacks its compiled payload.
//
// # Error Codes
//
//   - PARSE_ERROR: a coordinate string does not match the expected grammar
//   - RESOLUTION_ERROR: the primary archive was not found in any repository
//   - EXTRACTION_ERROR: the archive could not be unpacked or the destination created
//   - MISSING_ENTRY: the unpacked archive has no classes.jar at its root
//   - COMPANION_*: recovered locally, only ever logged
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParse, "invalid coordinate %q", s)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // Handle malformed input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeExtraction, origErr, "extract %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Pipeline errors
	ErrCodeParse               Code = "PARSE_ERROR"
	ErrCodeResolution          Code = "RESOLUTION_ERROR"
	ErrCodeCompanionResolution Code = "COMPANION_RESOLUTION_ERROR"
	ErrCodeExtraction          Code = "EXTRACTION_ERROR"
	ErrCodeMissingEntry        Code = "MISSING_ENTRY"
	ErrCodeCompanionCopy       Code = "COMPANION_COPY_ERROR"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"

	// Resource errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Network errors
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeChecksum Code = "CHECKSUM_MISMATCH"

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

// Is reports whether any *Error in err's chain has the given code.
// It keeps unwrapping past outer errors with a different code, so a
// MISSING_ENTRY wrapped by the pipeline is still recognized.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the messages of the chain without code prefixes.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err must abort a run. Companion failures are
// the only recoverable kinds.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeCompanionResolution, ErrCodeCompanionCopy:
		return false
	}
	return true
}
