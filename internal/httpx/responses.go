package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"bookshelf/internal/apperr"
)

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeInternal     = "INTERNAL_ERROR"

	InternalMessage = "Internal server error."
)

type ErrorResponse struct {
	Message string        `json:"message"`
	Code    string        `json:"code"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func JSONMessage(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, MessageResponse{Message: message})
}

func JSONError(w http.ResponseWriter, statusCode int, code string, message string, details []ErrorDetail) {
	JSON(w, statusCode, ErrorResponse{
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteError maps err to a status code and writes the error body. Internal
// errors are logged with the request id and reported with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		JSONError(w, http.StatusBadRequest, CodeValidation, apperr.MessageOf(err, "Invalid input."), nil)
	case apperr.KindAuth:
		JSONError(w, http.StatusUnauthorized, CodeUnauthorized, apperr.MessageOf(err, "Unauthorized."), nil)
	case apperr.KindNotFound:
		JSONError(w, http.StatusNotFound, CodeNotFound, apperr.MessageOf(err, "Not found."), nil)
	case apperr.KindConflict:
		JSONError(w, http.StatusConflict, CodeConflict, apperr.MessageOf(err, "Already exists."), nil)
	default:
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", RequestIDFrom(r)),
				zap.Error(err),
			)
		}
		JSONError(w, http.StatusInternalServerError, CodeInternal, InternalMessage, nil)
	}
}

// DecodeJSON decodes the request body into dst and validates it. On failure
// it writes a 400 response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			JSONError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "Request body too large.", nil)
		case errors.Is(err, io.EOF):
			JSONError(w, http.StatusBadRequest, CodeValidation, "All fields are required.", nil)
		default:
			JSONError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body.", nil)
		}
		return false
	}

	if details := ValidateStruct(dst); len(details) > 0 {
		JSONError(w, http.StatusBadRequest, CodeValidation, details[0].Message, details)
		return false
	}
	return true
}
