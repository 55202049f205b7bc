package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError for logging and for its HTTP mapping.
type ErrorType string

const (
	// ErrTypeParsing means the upload could not be read as a workbook, or
	// an upstream response could not be decoded.
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
	// ErrTypeNetwork covers failed calls to the narrative provider.
	ErrTypeNetwork ErrorType = "NETWORK"
)

type typeMapping struct {
	status  int
	problem string
	title   string
}

var typeMappings = map[ErrorType]typeMapping{
	ErrTypeParsing:    {http.StatusUnprocessableEntity, TypeDataCorrupted, "Unreadable Workbook"},
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation, "Validation Failed"},
	ErrTypeNotFound:   {http.StatusNotFound, TypeNotFound, "Resource Not Found"},
	ErrTypeNetwork:    {http.StatusServiceUnavailable, TypeServiceDown, "Upstream Unavailable"},
}

func (t ErrorType) mapping() typeMapping {
	if m, ok := typeMappings[t]; ok {
		return m
	}
	return typeMapping{http.StatusInternalServerError, TypeInternal, "Internal Server Error"}
}

// Status returns the HTTP status code for errors of this type.
func (t ErrorType) Status() int {
	return t.mapping().status
}

// AppError is a typed application error carrying optional key/value
// context for problem responses.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a detail that is echoed in 4xx problem responses.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// newAppError backs the typed constructors below
func newAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError reports a failed upstream call.
func NewNetworkError(message string, cause error) *AppError {
	return newAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError reports unreadable input.
func NewParsingError(message string, cause error) *AppError {
	return newAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError reports a rejected request or upload.
func NewAppValidationError(message string) *AppError {
	return newAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError reports a missing file or resource.
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError reports invalid configuration.
func NewConfigError(message string, cause error) *AppError {
	return newAppError(ErrTypeConfig, message, cause)
}
