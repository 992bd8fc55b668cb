package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"opsconsole/internal/infra/tenantclient"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrNoClient   = errors.New("no tenant client")
	ErrEmptyPatch = errors.New("nothing to update")
)

// ValidationError is returned before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Only keeps the failures whose top-level field is one of keys, so
// "items.0.quantity" is kept for "items".
func (e *ValidationError) Only(keys ...string) *ValidationError {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	kept := NewValidationError()
	for field, message := range e.Fields {
		top, _, _ := strings.Cut(field, ".")
		if allowed[top] {
			kept.Add(field, message)
		}
	}
	return kept
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const (
	networkMessage = "Unable to reach the server. Check your connection and try again."
	genericMessage = "Something went wrong. Please try again."
)

// Message is the text kept in State.Error for a failed operation.
func Message(err error) string {
	var apiErr *tenantclient.APIError
	var netErr *tenantclient.NetworkError
	var validationErr *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &apiErr):
		return apiErr.Detail
	case errors.As(err, &netErr):
		return networkMessage
	case errors.Is(err, context.DeadlineExceeded):
		return networkMessage
	default:
		return genericMessage
	}
}
