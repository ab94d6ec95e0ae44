package errors

import "fmt"

// ErrorCode represents a Stash error code.
type ErrorCode string

const (
	ErrConfiguration  ErrorCode = "CONFIGURATION"   // 500: no API key configured
	ErrAuthentication ErrorCode = "AUTHENTICATION"  // 401: token missing or mismatched
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404: unknown project
	ErrRouteNotFound  ErrorCode = "ROUTE_NOT_FOUND" // 404: no matching path/method
	ErrStorageRead    ErrorCode = "STORAGE_READ"    // recovered at the store boundary, never surfaced
	ErrStorageWrite   ErrorCode = "STORAGE_WRITE"   // recovered at the store boundary, never surfaced
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// StashError represents a structured error with code, status, and details.
type StashError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *StashError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfiguration creates a 500 error for a missing process-wide secret.
func NewConfiguration(msg string) *StashError {
	return &StashError{
		Code:    ErrConfiguration,
		Status:  500,
		Message: msg,
	}
}

// NewAuthentication creates a 401 error for a missing or mismatched token.
func NewAuthentication() *StashError {
	return &StashError{
		Code:    ErrAuthentication,
		Status:  401,
		Message: "invalid or missing API key",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StashError {
	return &StashError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewProjectNotFound creates a 404 error for an unknown project.
func NewProjectNotFound(project string) *StashError {
	return &StashError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("project not found: %s", project),
		Details: map[string]any{"project": project},
	}
}

// NewRouteNotFound creates a 404 error for an unmatched path/method.
func NewRouteNotFound(method, path string) *StashError {
	return &StashError{
		Code:    ErrRouteNotFound,
		Status:  404,
		Message: fmt.Sprintf("no route for %s %s", method, path),
	}
}

// NewStorageRead wraps a backing-medium read failure. Stores recover from
// this locally by substituting an empty collection; it never reaches a
// request.
func NewStorageRead(err error) *StashError {
	return &StashError{
		Code:    ErrStorageRead,
		Status:  500,
		Message: fmt.Sprintf("storage read failed: %v", err),
	}
}

// NewStorageWrite wraps a backing-medium write failure. Stores log it and
// still report success to the caller.
func NewStorageWrite(err error) *StashError {
	return &StashError{
		Code:    ErrStorageWrite,
		Status:  500,
		Message: fmt.Sprintf("storage write failed: %v", err),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StashError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StashError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a StashError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*StashError); ok {
		return sErr.Code == code
	}
	return false
}
