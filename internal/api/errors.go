package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FallbackMessage is used when a failed response carries no readable error
const FallbackMessage = "Request failed. Please try again."

// Error is a non-2xx response from the Kanda API
type Error struct {
	StatusCode int
	Message    string

	// NeedsActivation is set when the server reports an account awaiting activation
	NeedsActivation bool
	Email           string

	// Body is the decoded JSON error body, nil when it was not JSON
	Body map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// newError builds an Error from a failed response body.
// The message comes from error, then errors, then message. Field types are
// read loosely so one odd field does not hide the others.
func newError(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode, Message: FallbackMessage}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return apiErr
	}
	apiErr.Body = raw

	apiErr.NeedsActivation = truthy(raw["needs_activation"])
	if email, ok := raw["email"].(string); ok {
		apiErr.Email = strings.TrimSpace(email)
	}

	for _, key := range []string{"error", "errors", "message"} {
		if msg := flatten(raw[key]); msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}

// truthy reads a flag sent as a bool, a number or a string
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

// flatten turns an error field into a single line.
// Strings are used as is, lists are joined, objects (field -> messages) are
// flattened in key order, and nested {"message": ...} objects are unwrapped.
func flatten(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if msg, ok := val["message"]; ok {
			if s := flatten(msg); s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := flatten(val[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case nil, bool:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
