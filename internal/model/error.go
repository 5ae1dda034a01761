package model

import "fmt"

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeServer       = "SERVER_ERROR"
	CodeNetwork      = "NETWORK_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeCancelled    = "REQUEST_CANCELLED"
	CodeUnknown      = "UNKNOWN_ERROR"
)

// APIError is the single error shape returned to callers of the API client.
type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`

	cause error
}

func NewAPIError(message, code string, status int, timestamp string, details any, cause error) *APIError {
	return &APIError{
		Message:   message,
		Code:      code,
		Status:    status,
		Timestamp: timestamp,
		Details:   details,
		cause:     cause,
	}
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }
