package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a capture error code.
type ErrorCode string

const (
	ErrNotConfigured  ErrorCode = "NOT_CONFIGURED"  // 412: no save location was ever chosen
	ErrUnreachable    ErrorCode = "UNREACHABLE"     // 404: save location moved or deleted
	ErrNotWritable    ErrorCode = "NOT_WRITABLE"    // 403: save location lost write permission
	ErrItemFailed     ErrorCode = "ITEM_FAILED"     // 500: one attachment could not be written (recoverable)
	ErrNoteFailed     ErrorCode = "NOTE_FAILED"     // 500: sidecar note could not be written
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrFileTooLarge   ErrorCode = "FILE_TOO_LARGE"  // 413
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// CaptureError represents a structured error with code, status, and details.
type CaptureError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CaptureError) Unwrap() error {
	return e.Err
}

// NewNotConfigured creates an error for when no save location has been chosen.
// The message tells the user how to pick one.
func NewNotConfigured() *CaptureError {
	return &CaptureError{
		Code:    ErrNotConfigured,
		Status:  412,
		Message: "No save location set. Choose a folder with `capture location set <dir>`.",
	}
}

// NewUnreachable creates an error for a save location that no longer resolves.
func NewUnreachable(ref string, cause error) *CaptureError {
	return &CaptureError{
		Code:    ErrUnreachable,
		Status:  404,
		Message: "Cannot access save folder. It may have been moved or deleted.",
		Details: map[string]any{"location": ref},
		Err:     cause,
	}
}

// NewNotWritable creates an error for a save location without write permission.
func NewNotWritable(ref string, cause error) *CaptureError {
	return &CaptureError{
		Code:    ErrNotWritable,
		Status:  403,
		Message: "Cannot write to save folder. Please choose a new location.",
		Details: map[string]any{"location": ref},
		Err:     cause,
	}
}

// NewItemFailed creates an error for a single attachment that could not be saved.
// stage is "create", "open" or "copy".
func NewItemFailed(filename, stage string, cause error) *CaptureError {
	msg := fmt.Sprintf("failed to %s %s", stage, filename)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &CaptureError{
		Code:    ErrItemFailed,
		Status:  500,
		Message: msg,
		Details: map[string]any{"filename": filename, "stage": stage},
		Err:     cause,
	}
}

// NewNoteFailed creates an error for a sidecar note that could not be created or written.
// stage is "create" or "write".
func NewNoteFailed(filename, stage string, cause error) *CaptureError {
	msg := "Failed to write note file."
	if stage == "create" {
		msg = "Failed to create note file."
	}
	return &CaptureError{
		Code:    ErrNoteFailed,
		Status:  500,
		Message: msg,
		Details: map[string]any{"filename": filename, "stage": stage},
		Err:     cause,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CaptureError {
	return &CaptureError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewFileTooLarge creates a 413 error when an uploaded file exceeds the size limit.
func NewFileTooLarge(max, actual int64) *CaptureError {
	return &CaptureError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CaptureError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CaptureError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if an error is (or wraps) a CaptureError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *CaptureError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}

// CodeOf returns the code of a CaptureError, or ErrInternal for any other non-nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var cErr *CaptureError
	if stderrors.As(err, &cErr) {
		return cErr.Code
	}
	return ErrInternal
}
