package errorz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrPreferenceNotFound   = fmt.Errorf("preference %w", ErrNotFound)
	ErrSettingsNotFound     = fmt.Errorf("notification settings %w", ErrNotFound)
	ErrTemplateNotFound     = fmt.Errorf("template %w", ErrNotFound)
)

// ValidationError is returned for input rejected before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type TemplateNotFoundError struct {
	Type     string
	Language string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found for type %s and language %s", e.Type, e.Language)
}

func (e *TemplateNotFoundError) Unwrap() error { return ErrNotFound }

// MissingVariablesError lists placeholders left unresolved after rendering.
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing template variables: %s", strings.Join(e.Names, ", "))
}

func (e *MissingVariablesError) Unwrap() error { return ErrValidation }

// IsTemplateError reports whether err came from template lookup or rendering.
func IsTemplateError(err error) bool {
	var notFound *TemplateNotFoundError
	var missing *MissingVariablesError
	return errors.As(err, &notFound) || errors.As(err, &missing)
}
