package tokstore

import "errors"

// ErrInvalidToken is returned by Rotate when the presented token is unknown,
// already rotated, already removed, or expired. It is a normal, expected
// outcome of Rotate — not a store failure — and is reported to callers as
// part of the rotate response envelope, never as a Go error return from the
// dispatcher's point of view (see the rotate envelope in
// internal/httpapi/response.go for the HTTP mapping).
var ErrInvalidToken = errors.New("invalid token")
