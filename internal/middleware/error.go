package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"monocart/internal/apiclient"
	"monocart/internal/session"
	"monocart/internal/store"
	"monocart/internal/validate"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithErrorDetails(w, statusCode, message, nil)
}

func respondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, fields []validate.FieldError) {
	details := make(map[string]interface{})
	details["validation_errors"] = fields

	respondWithErrorDetails(w, http.StatusBadRequest, "validation failed", details)
}

// RespondWithDomainError maps a state-layer error onto a status code and envelope.
// Authentication failures carry the login route under details.redirect.
func RespondWithDomainError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		RespondWithValidationErrors(w, verr.Fields)
		return
	}

	msg := apiclient.Message(err)

	switch {
	case errors.Is(err, ErrInvalidBody):
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	case errors.Is(err, apiclient.ErrNotAuthenticated), errors.Is(err, apiclient.ErrUnauthorized):
		respondWithErrorDetails(w, http.StatusUnauthorized, msg, map[string]interface{}{
			"redirect": session.RouteLogin,
		})
		return
	case errors.Is(err, store.ErrNotCancellable):
		RespondWithError(w, http.StatusConflict, "Only pending orders can be cancelled")
		return
	case errors.Is(err, store.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "resource not found")
		return
	case errors.Is(err, store.ErrEmptyCart):
		RespondWithError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		RespondWithError(w, apiErr.Status, msg)
		return
	}

	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) || apiErr != nil || errors.Is(err, apiclient.ErrMalformedResponse) {
		logger.Warn("Upstream API failure", zap.Error(err))
		RespondWithError(w, http.StatusBadGateway, msg)
		return
	}

	logger.Error("Unhandled error", zap.Error(err))
	RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
