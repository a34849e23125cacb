package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every failure surfaced by services maps to one of these.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")
)

// Wire error codes. These map 1:1 to HTTP statuses in the routing layer
// and must not change: external collaborators key off them.
const (
	CodeProviderProfileNotFound = "provider_profile_not_found"
	CodeProviderProfileDeleted  = "provider_profile_deleted"
	CodeProviderProfileRequired = "provider_profile_required"
	CodeCharacterNotFound       = "character_not_found"
	CodeActiveRefSetMissing     = "active_ref_set_missing"
	CodeRefSetNotFound          = "ref_set_not_found"
	CodeInvalidRefSetOwner      = "invalid_ref_set_owner"
	CodeRefSetNotConfirmed      = "ref_set_not_confirmed"
	CodeInsufficientRefs        = "insufficient_refs"
	CodeBadRequest              = "bad_request"
	CodeNotFound                = "not_found"
	CodeConflict                = "conflict"
	CodeInternal                = "internal_error"
)

// Error is a coded application error. It wraps one of the sentinel kinds
// so callers can use errors.Is for taxonomy checks and Code for the
// wire representation.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFound creates a coded not-found error.
func NotFound(code, message string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Message: message}
}

// Conflict creates a coded conflict error.
func Conflict(code, message string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: message}
}

// Validation creates a coded validation error.
func Validation(code, message string) *Error {
	return &Error{Kind: ErrValidation, Code: code, Message: message}
}

// Internal creates a coded internal error.
func Internal(message string) *Error {
	return &Error{Kind: ErrInternal, Code: CodeInternal, Message: message}
}

// CodeOf extracts the wire code from err, falling back to the kind's
// generic code.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrValidation):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

// HTTPStatus maps err to the status the routing layer should return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
