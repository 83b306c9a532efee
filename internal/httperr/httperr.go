// SPDX-License-Identifier: MIT

// Package httperr defines the typed HTTP error raised by pipeline stages.
//
// Any error that is not an *Error is treated as an internal failure and
// answered with a generic 500 page by the error boundary.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an HTTP error carrying a status code and an expose flag that
// controls whether Message may be shown to the client.
type Error struct {
	Status  int
	Message string
	Expose  bool
	Header  http.Header

	cause error
}

// Option customises an Error at construction time.
type Option func(*Error)

// WithExpose overrides the default expose flag.
func WithExpose(expose bool) Option {
	return func(e *Error) { e.Expose = expose }
}

// WithHeader adds a response header applied when the error is rendered.
func WithHeader(key, value string) Option {
	return func(e *Error) {
		if e.Header == nil {
			e.Header = make(http.Header)
		}
		e.Header.Add(key, value)
	}
}

// WithCause records the underlying error for logging and errors.Is/As.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// New returns a typed HTTP error. An empty message falls back to the status
// reason phrase. Client errors (< 500) are exposed by default.
func New(status int, message string, opts ...Option) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	e := &Error{
		Status:  status,
		Message: message,
		Expose:  status < http.StatusInternalServerError,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Errorf is New with a formatted message.
func Errorf(status int, format string, args ...any) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Reason returns the standard reason phrase for the error's status.
func (e *Error) Reason() string {
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return "Unknown Status"
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// StatusCode reports the status an error maps to: the typed status, or 500
// for everything else. A nil error maps to 0.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	if he, ok := As(err); ok {
		return he.Status
	}
	return http.StatusInternalServerError
}
