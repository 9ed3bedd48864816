package errors

import "net/http"

// APIError carries the HTTP status alongside a machine-checkable code.
// Services return it directly so handlers never have to re-map error types.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

// Validation covers malformed input: missing fields, bad id formats.
func Validation(message string) *APIError {
	return New(http.StatusBadRequest, "validation_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, "not_found", message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, "conflict", message)
}
