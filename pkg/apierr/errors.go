// Package apierr provides the structured error taxonomy used at the HTTP
// boundary (spec §7). Store code never imports net/http or this package;
// the dispatcher is solely responsible for turning a domain outcome into a
// wire response (spec §4.3, §9).
package apierr

import (
	"fmt"
	"net/http"
	"time"
)

// Code identifies the kind of error being reported.
type Code string

// Error implements the error interface directly on Code so sentinel
// comparisons (errors.Is) work without wrapping.
func (c Code) Error() string { return string(c) }

const (
	// CodeMalformedBody — request body is not valid JSON, or lacks a
	// required field (spec §6, §9 Open Question a).
	CodeMalformedBody Code = "malformed_body"
	// CodeUnsupportedMedia — request carries a body but the wrong
	// Content-Type (spec §4.3, §6).
	CodeUnsupportedMedia Code = "unsupported_media_type"
	// CodeNotFound — unknown path.
	CodeNotFound Code = "not_found"
	// CodeMethodNotAllowed — known path, wrong method.
	CodeMethodNotAllowed Code = "method_not_allowed"
	// CodeDumpDisabled — HEAD /dump requested while the dump flag is off.
	CodeDumpDisabled Code = "dump_disabled"
	// CodeInternal — an invariant violation or other programmer error
	// (spec §7: "fatal; the process aborts").
	CodeInternal Code = "internal"
)

// Source classifies where an error originated, per the taxonomy in spec §7.
type Source string

const (
	SourceClientFraming Source = "client_framing"
	SourceDomain        Source = "domain"
	SourceTransport     Source = "transport"
	SourceConfiguration Source = "configuration"
	SourceInvariant     Source = "invariant"
)

// Error is the structured error type carried from handler logic to the
// logging/response layer.
type Error struct {
	Code      Code
	Message   string
	Source    Source
	RequestID string
	Cause     error
	At        time.Time
}

// New creates a structured error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, At: time.Now()}
}

// WithSource annotates the error with its originating category.
func (e *Error) WithSource(source Source) *Error {
	e.Source = source
	return e
}

// WithCause attaches an underlying error for logging.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRequestID attaches the request's correlation id.
func (e *Error) WithRequestID(id string) *Error {
	e.RequestID = id
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus maps a Code to the HTTP status the dispatcher must send (spec
// §6: "400 ... 404 ... 405 ... 415 ... 422 ... 500"). InvalidToken is
// deliberately absent here — it never carries its own status, it rides
// inside a 200 response envelope (spec §6, "Wire detail for PUT /token").
func (c Code) HTTPStatus() int {
	switch c {
	case CodeMalformedBody:
		return http.StatusUnprocessableEntity
	case CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case CodeNotFound, CodeDumpDisabled:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
