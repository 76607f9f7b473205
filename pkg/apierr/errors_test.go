package apierr

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCreation(t *testing.T) {
	err := New(CodeMalformedBody, "meta must be an object")
	require.Equal(t, CodeMalformedBody, err.Code)
	require.Equal(t, "meta must be an object", err.Message)
	assert.False(t, err.At.IsZero())
}

func TestErrorMethodsAndUnwrap(t *testing.T) {
	base := stderrors.New("decode failed")
	err := New(CodeMalformedBody, "bad json").
		WithSource(SourceClientFraming).
		WithCause(base).
		WithRequestID("req-123")

	assert.Equal(t, SourceClientFraming, err.Source)
	assert.Equal(t, "req-123", err.RequestID)
	assert.ErrorIs(t, err, base)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Code]int{
		CodeMalformedBody:    http.StatusUnprocessableEntity,
		CodeUnsupportedMedia: http.StatusUnsupportedMediaType,
		CodeNotFound:         http.StatusNotFound,
		CodeDumpDisabled:     http.StatusNotFound,
		CodeMethodNotAllowed: http.StatusMethodNotAllowed,
		CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), "code %s", code)
	}
}
