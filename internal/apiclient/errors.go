package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrSessionExpired is returned when the backend rejected the session
	// and the tokens could not be refreshed. The tokens have been cleared.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrBackendUnavailable is returned while the circuit breaker is open.
	ErrBackendUnavailable = errors.New("backend temporarily unavailable")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newAPIError(status int, body []byte) *APIError {
	msg, fields := ExtractMessage(status, body)
	return &APIError{Status: status, Message: msg, Fields: fields}
}

// ExtractMessage turns an error body into a user-facing message. It looks at
// "error", then "detail", then field-keyed validation lists rendered as
// "field: a, b" one per line, and finally falls back to a message for the
// status code.
func ExtractMessage(status int, body []byte) (string, map[string][]string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || len(obj) == 0 {
		return genericMessage(status), nil
	}

	for _, key := range []string{"error", "detail"} {
		if s, ok := stringValue(obj[key]); ok && s != "" {
			return s, nil
		}
	}

	fields := make(map[string][]string)
	for key, raw := range obj {
		if key == "error" || key == "detail" {
			continue
		}
		if vals := messageList(raw); len(vals) > 0 {
			fields[key] = vals
		}
	}
	if len(fields) == 0 {
		return genericMessage(status), nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, strings.Join(fields[k], ", ")))
	}
	return strings.Join(lines, "\n"), fields
}

func stringValue(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func messageList(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	if s, ok := stringValue(raw); ok && s != "" {
		return []string{s}
	}
	return nil
}

func genericMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "The request could not be processed"
	case status == http.StatusUnauthorized:
		return "Please log in to continue"
	case status == http.StatusForbidden:
		return "You are not allowed to do that"
	case status == http.StatusNotFound:
		return "Not found"
	case status == http.StatusTooManyRequests:
		return "Too many requests, please slow down"
	case status >= 500:
		return "The server is having trouble, please try again later"
	default:
		return "Something went wrong, please try again"
	}
}
