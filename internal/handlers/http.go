package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/tokenvote/internal/errors"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest                     = "BAD_REQUEST"
	ErrCodeNotFound                       = "NOT_FOUND"
	ErrCodeConflict                       = "CONFLICT"
	ErrCodeValidation                     = "VALIDATION_ERROR"
	ErrCodeInternalServer                 = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidTransition              = "INVALID_TRANSITION"
	ErrCodeDuplicateScenarioOrder         = "DUPLICATE_SCENARIO_ORDER"
	ErrCodeInsufficientTokens             = "INSUFFICIENT_TOKENS"
	ErrCodeUnknownMechanismHyperparameter = "UNKNOWN_MECHANISM_HYPERPARAMETER"
	ErrCodeUnavailable                    = "SERVICE_UNAVAILABLE"
)

// APIError represents an error with an HTTP status code and error code.
// Details carries the current state a client needs to correct its request.
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// InternalError creates a 500 error; the cause is logged by the caller
func InternalError() *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// kindStatus maps application error kinds onto HTTP status and code
var kindStatus = map[errors.Kind]struct {
	status int
	code   string
}{
	errors.ErrNotFound:                       {http.StatusNotFound, ErrCodeNotFound},
	errors.ErrValidation:                     {http.StatusBadRequest, ErrCodeValidation},
	errors.ErrInvalidInput:                   {http.StatusBadRequest, ErrCodeValidation},
	errors.ErrConflict:                       {http.StatusConflict, ErrCodeConflict},
	errors.ErrInvalidTransition:              {http.StatusConflict, ErrCodeInvalidTransition},
	errors.ErrDuplicateScenarioOrder:         {http.StatusConflict, ErrCodeDuplicateScenarioOrder},
	errors.ErrInsufficientTokens:             {http.StatusUnprocessableEntity, ErrCodeInsufficientTokens},
	errors.ErrUnknownMechanismHyperparameter: {http.StatusBadRequest, ErrCodeUnknownMechanismHyperparameter},
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		if m, ok := kindStatus[appErr.Kind]; ok {
			return &APIError{Status: m.status, Code: m.code, Message: appErr.Message, Details: appErr.Details}
		}
	}
	return InternalError()
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondError writes an error response. Internal errors are logged with
// their cause; the client only sees the generic message.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := ToAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError && h.Log != nil {
		h.Log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// pathParam extracts a required URL parameter
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return "", BadRequest("Missing " + name + " parameter")
	}
	return v, nil
}
