package httputil

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/R3E-Network/miniapp_admin/internal/errors"
	"github.com/R3E-Network/miniapp_admin/internal/logging"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	TraceID string                 `json:"trace_id,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse writes a structured error, tagging it with the request trace ID.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
	if r != nil {
		resp.TraceID = logging.GetTraceID(r.Context())
	}
	WriteJSON(w, status, resp)
}

// WriteError writes err, using its ServiceError status when it has one.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("internal error", err)
	}
	WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorResponse(w, r, http.StatusBadRequest, string(errors.CodeBadRequest), message, nil)
}

// MaxJSONBody bounds the request bodies DecodeJSON accepts.
const MaxJSONBody = 1 << 20

// DecodeJSON decodes the request body into v, writing a 400 and returning false on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := ReadAllStrict(r.Body, MaxJSONBody)
	switch {
	case stderrors.Is(err, ErrBodyTooLarge):
		BadRequest(w, r, "request body too large")
		return false
	case err != nil:
		BadRequest(w, r, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		BadRequest(w, r, "invalid JSON body")
		return false
	}
	return true
}
