package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a service error onto the wire. Typed app
// errors carry their own status and code; anything else is a 500 with
// the raw message withheld from the caller.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if werr := ErrorResponse(w, apperrors.HTTPStatus(err), apperrors.CodeOf(err), appErr.Message); werr != nil {
			logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	logger.Error("Unhandled service error", zap.Error(err))
	if werr := ErrorResponse(w, http.StatusInternalServerError, apperrors.CodeInternal, "internal error"); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}
