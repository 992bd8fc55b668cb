package tenantclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotReady     = errors.New("tenant client not ready")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
)

const genericErrorMessage = "Something went wrong. Please try again."

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	// Detail is the server's detail/message/error field, or a generic message.
	Detail string
	// Fields holds per-field messages when the body is a field→messages object.
	Fields map[string][]string
	// Conflicts holds the items of an array-shaped body, e.g. stock shortages.
	Conflicts []map[string]any
	Body      []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// NetworkError means no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

var detailKeys = []string{"detail", "message", "error", "non_field_errors"}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: body}

	var decoded any
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil {
		switch v := decoded.(type) {
		case map[string]any:
			apiErr.readObject(v)
		case []any:
			apiErr.readArray(v)
		case string:
			apiErr.Detail = v
		}
	}

	if apiErr.Detail == "" {
		if len(apiErr.Fields) > 0 {
			apiErr.Detail = apiErr.firstFieldMessage()
		} else {
			apiErr.Detail = genericErrorMessage
		}
	}
	return apiErr
}

func (e *APIError) readObject(obj map[string]any) {
	for _, key := range detailKeys {
		if msg := messageOf(obj[key]); msg != "" {
			e.Detail = msg
			break
		}
	}
	if items, ok := obj["errors"].([]any); ok {
		e.readArray(items)
	}
	for key, value := range obj {
		if key == "errors" || isDetailKey(key) {
			continue
		}
		if msgs := messagesOf(value); len(msgs) > 0 {
			if e.Fields == nil {
				e.Fields = map[string][]string{}
			}
			e.Fields[key] = msgs
		}
	}
}

func (e *APIError) readArray(items []any) {
	var texts []string
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			e.Conflicts = append(e.Conflicts, v)
		case string:
			texts = append(texts, v)
		}
	}
	if e.Detail == "" && len(texts) > 0 {
		e.Detail = strings.Join(texts, "; ")
	}
}

func (e *APIError) firstFieldMessage() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", keys[0], e.Fields[keys[0]][0])
}

func isDetailKey(key string) bool {
	for _, k := range detailKeys {
		if k == key {
			return true
		}
	}
	return false
}

func messageOf(value any) string {
	msgs := messagesOf(value)
	if len(msgs) == 0 {
		return ""
	}
	return strings.Join(msgs, " ")
}

func messagesOf(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
