package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakr/tokserver/pkg/tokstore"
)

func newTestAPI(dumpEnabled bool) *API {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &API{
		Store:       tokstore.New(2 * time.Hour),
		DumpEnabled: dumpEnabled,
		Logger:      logger,
	}
}

func doRequest(r http.Handler, method, path, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateThenRotateThenInspect(t *testing.T) {
	api := newTestAPI(true)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{"meta":{"owner":"alice","year":2024}}`, "application/json")
	require.Equal(t, 200, rec.Code)
	token := rec.Body.String()
	require.NotEmpty(t, token)

	rec = doRequest(r, "PUT", "/token", `{"token":"`+token+`","meta":{"period":"Q1"}}`, "application/json")
	require.Equal(t, 200, rec.Code)

	var env rotateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Ok)
	assert.Empty(t, env.Err)
	assert.Equal(t, "alice", env.Ok.Meta["owner"])
	assert.Equal(t, "Q1", env.Ok.Meta["period"])
	assert.NotEqual(t, token, env.Ok.Token)
}

func TestRotateWithoutMetaKeepsOldMeta(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{"meta":{"owner":"bob"}}`, "application/json")
	token := rec.Body.String()

	rec = doRequest(r, "PUT", "/token", `{"token":"`+token+`"}`, "application/json")
	require.Equal(t, 200, rec.Code)
	var env rotateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Ok)
	assert.Equal(t, "bob", env.Ok.Meta["owner"])
}

func TestDeleteThenRotateIsInvalid(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{"meta":{}}`, "application/json")
	token := rec.Body.String()

	rec = doRequest(r, "DELETE", "/token", `{"token":"`+token+`"}`, "application/json")
	require.Equal(t, 202, rec.Code)

	rec = doRequest(r, "PUT", "/token", `{"token":"`+token+`"}`, "application/json")
	require.Equal(t, 200, rec.Code)
	var env rotateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Nil(t, env.Ok)
	assert.Equal(t, "InvalidToken", env.Err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "DELETE", "/token", `{"token":"nonexistent"}`, "application/json")
	assert.Equal(t, 202, rec.Code)
}

func TestPutWrongContentTypeIs415(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{"meta":{}}`, "application/json")
	token := rec.Body.String()

	rec = doRequest(r, "PUT", "/token", `{"token":"`+token+`"}`, "text/plain")
	assert.Equal(t, 415, rec.Code)
}

func TestCreateMissingMetaIs422(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{}`, "application/json")
	assert.Equal(t, 422, rec.Code)
}

func TestCreateNonObjectMetaIs422(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{"meta":"not-an-object"}`, "application/json")
	assert.Equal(t, 422, rec.Code)
}

func TestDumpDisabledByDefault(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "HEAD", "/dump", "", "")
	assert.Equal(t, 404, rec.Code)
}

func TestDumpEnabled(t *testing.T) {
	api := newTestAPI(true)
	r := NewRouter(api)

	rec := doRequest(r, "POST", "/token", `{"meta":{}}`, "application/json")
	require.Equal(t, 200, rec.Code)

	rec = doRequest(r, "HEAD", "/dump", "", "")
	assert.Equal(t, 202, rec.Code)
}

func TestPingAndNotFound(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "GET", "/ping", "", "")
	assert.Equal(t, 200, rec.Code)

	rec = doRequest(r, "GET", "/nope", "", "")
	assert.Equal(t, 404, rec.Code)
}

func TestKnownPathWrongMethodIs405(t *testing.T) {
	api := newTestAPI(false)
	r := NewRouter(api)

	rec := doRequest(r, "GET", "/token", "", "")
	assert.Equal(t, 405, rec.Code)

	rec = doRequest(r, "POST", "/ping", "", "")
	assert.Equal(t, 405, rec.Code)

	rec = doRequest(r, "DELETE", "/dump", "", "")
	assert.Equal(t, 405, rec.Code)
}
