package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeTooManyRequests    = "too_many_requests"
	ErrCodeBadGateway         = "bad_gateway"
	ErrCodeConfigurationError = "configuration_error"
	ErrCodeInternalError      = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// MessageResponse is the data payload for responses that only carry a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSONSuccess writes statusCode and an APIResponse carrying data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data})
}

// WriteJSONError writes statusCode and an APIResponse carrying the error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Error: &APIError{Code: code, Message: message},
	})
}

// NotFound answers unknown routes with the JSON envelope instead of the mux's text body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "route not found: "+r.Method+" "+r.URL.Path)
}
