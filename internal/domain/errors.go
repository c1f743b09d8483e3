package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used across all layers.
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNetwork           = errors.New("network error")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
)

// ErrorKind classifies a failure for callers that only need to branch on it.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindValidation        ErrorKind = "validation"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindNetwork           ErrorKind = "network"
	KindServer            ErrorKind = "server"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindUnknown           ErrorKind = "unknown"
)

func (k ErrorKind) String() string { return string(k) }

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNetwork:
		return ErrNetwork
	case KindServer:
		return ErrServer
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindPermissionDenied:
		return ErrPermissionDenied
	}
	return nil
}

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// APIError is a failure that originated from talking to the backend.
// Status is zero for network failures.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s (HTTP %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause, so
// errors.Is(err, ErrUnauthorized) and errors.Is(err, context.Canceled) both work.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewUnauthorizedError builds the error returned for an HTTP 401.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// NewNetworkError wraps a transport failure (unreachable host, timeout, cancellation).
func NewNetworkError(message string, err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: message, Err: err}
}

// NewServerError builds the error for any non-2xx status other than 401.
func NewServerError(status int, message string) *APIError {
	return &APIError{Kind: KindServer, Status: status, Message: message}
}

// NewMalformedResponseError wraps a decode failure of a success body.
func NewMalformedResponseError(message string, err error) *APIError {
	return &APIError{Kind: KindMalformedResponse, Message: message, Err: err}
}

// KindOf reports the classification of err. It returns KindNone for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrServer):
		return KindServer
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage maps any failure to the single human-readable line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) && len(vErr.Errors) > 0 {
		return vErr.Errors[0].Message
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	switch KindOf(err) {
	case KindUnauthorized:
		return "Your session has expired. Please log in again."
	case KindPermissionDenied:
		return "Permission was not granted."
	case KindNetwork:
		return "Could not reach the server. Check your connection."
	}
	return "Something went wrong."
}
