package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"folio/pkg/folio"
)

const internalErrorMessage = "internal server error"

// Response represents a successful API response with unified format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error API response with structured information.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess writes a successful response with data.
func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Code: 0, Data: data})
}

// writeCreated writes a 201 response with the created resource.
func writeCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{Code: 0, Data: data})
}

// writeSuccessWithMessage writes a successful response with data and message.
func writeSuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

// writeErrorResponse maps err onto an HTTP status and writes the error envelope.
// Server-side failures are logged in full and reported with an opaque message.
func (h *handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := folio.CodeOf(err)
	status := mapErrorCodeToHTTPStatus(code)
	requestID := middleware.GetReqID(r.Context())

	message := internalErrorMessage
	var fe *folio.Error
	if status < http.StatusInternalServerError && errors.As(err, &fe) {
		message = fe.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	if lw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		lw.SetErrorMessage(message)
	}

	writeJSON(w, status, ErrorResponse{
		Code:      status,
		Message:   message,
		ErrorCode: string(code),
		RequestID: requestID,
	})
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code folio.ErrorCode) int {
	switch code {
	case folio.ErrCodeValidation, folio.ErrCodeInsufficientQuantity:
		return http.StatusBadRequest
	case folio.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case folio.ErrCodeAccessDenied:
		return http.StatusForbidden
	case folio.ErrCodeNotFound:
		return http.StatusNotFound
	case folio.ErrCodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(format string, args ...any) error {
	return folio.NewError(folio.ErrCodeValidation, fmt.Sprintf(format, args...))
}
