package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorDetail is a field level issue reported by PayPal
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error is returned when PayPal responds with a non-2xx status
//
// The PayPal error members are filled in if the body is a PayPal error object.
type Error struct {
	Method     string `json:"-"`
	URL        string `json:"-"`
	StatusCode int    `json:"-"`
	Body       []byte `json:"-"`

	Name            string        `json:"name"`
	Message         string        `json:"message"`
	DebugID         string        `json:"debug_id"`
	InformationLink string        `json:"information_link"`
	Details         []ErrorDetail `json:"details"`
}

func newError(method, url string, status int, body []byte) *Error {
	e := &Error{}
	// best effort, not every error response carries JSON
	_ = json.Unmarshal(body, e)
	e.Method, e.URL, e.StatusCode, e.Body = method, url, status, body
	return e
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("paypal: %s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("paypal: %s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, truncate(e.Body, 512))
}

// TransportError is returned when no response could be obtained
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("paypal: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an *Error with status 404
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
