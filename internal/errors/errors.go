package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Botan error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"   // 404
	ErrParse           ErrorCode = "PARSE_ERROR"      // 422
	ErrSchemaViolation ErrorCode = "SCHEMA_VIOLATION" // 422
	ErrCancelled       ErrorCode = "CANCELLED"        // 499
	ErrProviderFailed  ErrorCode = "PROVIDER_FAILED"  // 502
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// BotanError represents a structured error with code, status, and details.
type BotanError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BotanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BotanError {
	return &BotanError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing named resource (plant, event, template).
func NewNotFound(kind, identifier string) *BotanError {
	return &BotanError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing input file.
func NewFileNotFound(path string) *BotanError {
	return &BotanError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewParseError creates a 422 error for documents that cannot be decoded.
func NewParseError(format string, err error) *BotanError {
	msg := "parse error"
	if err != nil {
		msg = err.Error()
	}
	return &BotanError{
		Code:    ErrParse,
		Status:  422,
		Message: fmt.Sprintf("invalid %s: %s", format, msg),
		Details: map[string]any{"format": format},
	}
}

// NewSchemaViolation creates a 422 error carrying the list of violations.
func NewSchemaViolation(count int, violations any) *BotanError {
	return &BotanError{
		Code:    ErrSchemaViolation,
		Status:  422,
		Message: fmt.Sprintf("document has %d schema violation(s)", count),
		Details: map[string]any{"violations": violations},
	}
}

// NewCancelled creates an error for operations stopped by context cancellation.
func NewCancelled(operation string) *BotanError {
	return &BotanError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewProviderFailed creates a 502 error for a text-generation provider failure.
func NewProviderFailed(provider, kind, detail string) *BotanError {
	return &BotanError{
		Code:    ErrProviderFailed,
		Status:  502,
		Message: fmt.Sprintf("%s: %s: %s", provider, kind, detail),
		Details: map[string]any{"provider": provider, "kind": kind},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *BotanError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &BotanError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a BotanError with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *BotanError
	if stderrors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}
