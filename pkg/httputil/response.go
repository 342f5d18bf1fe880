// Package httputil holds the JSON response envelope and error-writing
// helpers shared by every HTTP handler.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/roamio/roamio/pkg/errors"
	"github.com/roamio/roamio/pkg/logger"
	"github.com/roamio/roamio/pkg/validator"
)

// Response is the envelope every endpoint answers with: data on success,
// error otherwise, never both.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse carries a stable machine code, a human message, optional
// field-level validation detail, and the request's correlation ID.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed:
// the header is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelCode maps a domain sentinel to its wire code and message.
type sentinelCode struct {
	sentinel error
	status   int
	code     string
	message  string
}

var sentinelCodes = []sentinelCode{
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "resource already exists"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", ""},
}

// WriteError renders err in the standard envelope. AppErrors carry their own
// code, message, and status; bare domain sentinels get a generic rendering;
// everything else is a 500, logged with the request-scoped logger when the
// RequestLogger middleware has provided one.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.sentinel) {
			message := sc.message
			if message == "" {
				message = err.Error()
			}
			WriteJSON(w, sc.status, Response{
				Error: &ErrorResponse{Code: sc.code, Message: message, RequestID: requestID},
			})
			return
		}
	}

	// Remaining sentinels keep their status mapping but are rendered
	// generically; anything unmapped is an internal error worth logging.
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{
		Error: &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred", RequestID: requestID},
	})
}

// PaginatedResponse is the envelope for list endpoints.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedResponse derives TotalPages and HasNext, and normalises a nil
// slice to an empty JSON array.
func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	totalPages := totalCount / perPage
	if totalCount%perPage > 0 {
		totalPages++
	}
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// WriteValidationError renders a 400 with per-field detail when err is a
// validator.ValidationError, or a plain INVALID_INPUT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

// ParseUUID parses a path parameter as a UUID. On failure it writes a 400
// INVALID_PARAMETER response and returns false so the handler can return
// immediately.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "invalid UUID: " + param,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
