package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports one or more invalid input fields. It is recoverable:
// the caller corrects the input and retries. No side effects occur before it
// is returned.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError creates a single-field validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends another failing field. Used to collect every problem before
// returning, rather than stopping at the first.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ExhaustionError indicates the credential reservation space for an account
// is drained. Fatal for the account until its namespace is widened.
type ExhaustionError struct {
	AccountID string
	Limit     int64
}

// Error implements the error interface
func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("credential namespace exhausted for account %s (limit %d)", e.AccountID, e.Limit)
}

// RenderError reports template rendering problems. It carries every failing
// field, never just the first.
type RenderError struct {
	Reason string // "incompatible_model" | "invalid_network_param" | "template_error"
	Fields []FieldError
}

// Error implements the error interface
func (e *RenderError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("render failed: %s", e.Reason)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("render failed: %s: %s", e.Reason, strings.Join(parts, "; "))
}

// StaleEventError indicates a payment event replay: the reference was already
// applied. The event is dropped and logged, never applied destructively.
type StaleEventError struct {
	Reference string
}

// Error implements the error interface
func (e *StaleEventError) Error() string {
	return fmt.Sprintf("payment event %s already applied", e.Reference)
}

// CompatibilityWarning is a non-fatal annotation attached to successful
// results when a profile rate exceeds the device model's documented ceiling.
type CompatibilityWarning struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Ceiling string `json:"ceiling"`
	Model   string `json:"model"`
	Message string `json:"message"`
}

// ToAPIError converts a domain error into the HTTP error representation.
// Unknown errors map to a generic internal error so internals never leak.
func ToAPIError(err error) *APIError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return NewFieldErrors(validationErr.Fields)
	}

	var exhaustionErr *ExhaustionError
	if errors.As(err, &exhaustionErr) {
		return NewWithDetails(http.StatusConflict, "CREDENTIAL_SPACE_EXHAUSTED", exhaustionErr.Error(), map[string]interface{}{
			"account_id": exhaustionErr.AccountID,
			"limit":      exhaustionErr.Limit,
		})
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return NewWithDetails(http.StatusUnprocessableEntity, "RENDER_FAILED", renderErr.Error(), map[string]interface{}{
			"reason": renderErr.Reason,
			"fields": renderErr.Fields,
		})
	}

	var staleErr *StaleEventError
	if errors.As(err, &staleErr) {
		return NewWithDetails(http.StatusConflict, "STALE_EVENT", staleErr.Error(), staleErr.Reference)
	}

	if errors.Is(err, ErrNotFoundSentinel) {
		return ErrNotFound
	}

	return ErrInternalServer
}

// ErrNotFoundSentinel is the storage-level not-found sentinel, wrapped by
// store methods and unwrapped by handlers via errors.Is.
var ErrNotFoundSentinel = errors.New("not found")
