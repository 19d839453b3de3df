package transport

import (
	"encoding/json"
	"net/http"
)

// Error type discriminators carried in the error envelope.
const (
	ErrorTypeInvalidRequest  = "invalid_request_error"
	ErrorTypeAuthentication  = "authentication_error"
	ErrorTypePermission      = "permission_error"
	ErrorTypeNotFound        = "not_found_error"
	ErrorTypeTooManyRequests = "rate_limit_error"
	ErrorTypeServerError     = "server_error"
)

// APIError is the error payload of the response envelope. Code carries
// the HTTP status so clients can act on it without parsing transport
// metadata.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse is the wire envelope for all error responses.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates a 400 validation error.
func NewInvalidRequestError(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: msg, Type: ErrorTypeInvalidRequest}
}

// NewUnprocessableError creates a 422 validation error.
func NewUnprocessableError(msg string) *APIError {
	return &APIError{Code: http.StatusUnprocessableEntity, Message: msg, Type: ErrorTypeInvalidRequest}
}

// NewConflictError creates a 409 error.
func NewConflictError(msg string) *APIError {
	return &APIError{Code: http.StatusConflict, Message: msg, Type: ErrorTypeInvalidRequest}
}

// NewAuthenticationError creates a 401 error.
func NewAuthenticationError(msg string) *APIError {
	return &APIError{Code: http.StatusUnauthorized, Message: msg, Type: ErrorTypeAuthentication}
}

// NewPermissionError creates a 403 error.
func NewPermissionError(msg string) *APIError {
	return &APIError{Code: http.StatusForbidden, Message: msg, Type: ErrorTypePermission}
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(msg string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: msg, Type: ErrorTypeNotFound}
}

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(msg string) *APIError {
	return &APIError{Code: http.StatusTooManyRequests, Message: msg, Type: ErrorTypeTooManyRequests}
}

// NewServerError creates a 500 error.
func NewServerError(msg string) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: msg, Type: ErrorTypeServerError}
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope, using the error's embedded
// status code.
func WriteError(w http.ResponseWriter, apiErr *APIError) {
	WriteJSON(w, apiErr.Code, ErrorResponse{Error: apiErr})
}
