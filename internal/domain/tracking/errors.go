package tracking

import (
	"errors"
	"fmt"
	"strings"

	"leadtrack/internal/domain/auth"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationError struct {
	Issues []Issue
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Reason: reason}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type AuthorizationError struct {
	Role   auth.Role
	Action string
}

func forbidden(role auth.Role, action string) *AuthorizationError {
	return &AuthorizationError{Role: role, Action: action}
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
