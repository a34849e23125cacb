package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/ids"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// ParsePagination reads limit and offset query parameters, clamping
// them to sane bounds. Absent or malformed values fall back to the
// defaults rather than erroring.
func ParsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// ParseULID extracts and validates a ULID path parameter. Returns the
// id and true on success, or "" and false after writing an error
// response.
func ParseULID(w http.ResponseWriter, r *http.Request, param string, logger *zap.Logger) (string, bool) {
	raw := r.PathValue(param)
	if !ids.Valid(raw) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid "+param+" format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return raw, true
}
