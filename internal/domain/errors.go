package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not_found")
	ErrConflict               = errors.New("conflict")
	ErrNameTaken              = errors.New("name_taken")
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrAccountInactive        = errors.New("account_inactive")
	ErrStatusNotAllowed       = errors.New("status_not_allowed")
	ErrPasswordChangeRequired = errors.New("password_change_required")
	ErrValidation             = errors.New("validation")
)

// ValidationError carries per-field messages and unwraps to ErrValidation
// so handlers can match the whole family with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
