package errors

import (
	"net/http"
)

// Error codes carried by APIError and echoed as the error_code extension.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeMissingParameter     = "MISSING_PARAMETER"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
)

// APIError is a transport-level failure with a fixed status and code,
// raised by handlers and middleware before a request reaches a service.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// New creates a new APIError
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// newWithDetails creates a new APIError carrying details
func newWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

var (
	ErrMissingUpload     = New(http.StatusBadRequest, CodeMissingParameter, `multipart field "file" is required`)
	ErrPayloadTooLarge   = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Upload exceeds the maximum allowed size")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")
)

// InvalidRequestWithError reports a malformed request body.
func InvalidRequestWithError(err error) *APIError {
	return newWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// UnsupportedMediaType reports a request body whose Content-Type is not
// accepted. got is empty when the header was missing or malformed.
func UnsupportedMediaType(got string, allowed []string) *APIError {
	if got == "" {
		return newWithDetails(http.StatusUnsupportedMediaType, CodeUnsupportedMediaType,
			"Content-Type header is missing or malformed",
			map[string]interface{}{"allowed": allowed})
	}
	return newWithDetails(http.StatusUnsupportedMediaType, CodeUnsupportedMediaType,
		"Unsupported content type",
		map[string]interface{}{"content_type": got, "allowed": allowed})
}
