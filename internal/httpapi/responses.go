package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"contractdesk/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDomainError maps the domain error taxonomy onto HTTP statuses.
// Validation errors carry their field messages; everything unrecognized
// collapses into a generic 500 so store internals never leak.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
	case errors.Is(err, domain.ErrAccountInactive):
		WriteError(w, http.StatusForbidden, "account_inactive", "account is inactive")
	case errors.Is(err, domain.ErrStatusNotAllowed):
		WriteError(w, http.StatusForbidden, "status_not_allowed", "account status not permitted")
	case errors.Is(err, domain.ErrPasswordChangeRequired):
		WriteError(w, http.StatusForbidden, "password_change_required", "password change required")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrNameTaken):
		WriteError(w, http.StatusConflict, "name_taken", "name already taken")
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "duplicate value")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
