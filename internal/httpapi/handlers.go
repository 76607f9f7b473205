package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hakr/tokserver/internal/metrics"
	"github.com/hakr/tokserver/internal/tracing"
	"github.com/hakr/tokserver/pkg/apierr"
	"github.com/hakr/tokserver/pkg/tokstore"
)

func requestIDOf(c *gin.Context) string {
	if v, ok := c.Get("RequestID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func readBody(c *gin.Context) ([]byte, *apierr.Error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apierr.New(apierr.CodeMalformedBody, "failed to read request body").
			WithSource(apierr.SourceClientFraming).WithCause(err).WithRequestID(requestIDOf(c))
	}
	return body, nil
}

// createRequest is the wire shape for POST /token. Meta must be present and
// a JSON object: §9 Open Question (a) resolves a missing or non-object meta
// as a 422, rather than silently defaulting to {}.
type createRequest struct {
	Meta *json.RawMessage `json:"meta"`
}

func decodeMeta(raw *json.RawMessage, c *gin.Context) (tokstore.Meta, *apierr.Error) {
	if raw == nil {
		return nil, apierr.New(apierr.CodeMalformedBody, "meta is required").
			WithSource(apierr.SourceClientFraming).WithRequestID(requestIDOf(c))
	}
	var meta tokstore.Meta
	if err := json.Unmarshal(*raw, &meta); err != nil || meta == nil {
		return nil, apierr.New(apierr.CodeMalformedBody, "meta must be a JSON object").
			WithSource(apierr.SourceClientFraming).WithCause(err).WithRequestID(requestIDOf(c))
	}
	return meta, nil
}

func (a *API) handleCreate(c *gin.Context) {
	body, apiErr := readBody(c)
	if apiErr != nil {
		writeAPIError(c, apiErr)
		return
	}

	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeAPIError(c, apierr.New(apierr.CodeMalformedBody, "request body must be valid JSON").
			WithSource(apierr.SourceClientFraming).WithCause(err).WithRequestID(requestIDOf(c)))
		return
	}

	meta, apiErr := decodeMeta(req.Meta, c)
	if apiErr != nil {
		writeAPIError(c, apiErr)
		return
	}

	_, span := a.startSpan(c, tracing.SpanCreate)
	defer span.End()

	token, err := a.Store.Create(meta)
	if err != nil {
		metrics.RecordTokenOperation("create", "error")
		writeAPIError(c, apierr.New(apierr.CodeInternal, "failed to create token").
			WithSource(apierr.SourceInvariant).WithCause(err).WithRequestID(requestIDOf(c)))
		return
	}
	metrics.RecordTokenOperation("create", "ok")
	metrics.SetActiveTokens(float64(a.Store.Len()))

	c.Data(200, "text/plain; charset=utf-8", []byte(token))
}

// rotateRequest is the wire shape for PUT /token.
type rotateRequest struct {
	Token string           `json:"token"`
	Meta  *json.RawMessage `json:"meta,omitempty"`
}

func (a *API) handleRotate(c *gin.Context) {
	body, apiErr := readBody(c)
	if apiErr != nil {
		writeAPIError(c, apiErr)
		return
	}

	var req rotateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeAPIError(c, apierr.New(apierr.CodeMalformedBody, "request body must be valid JSON").
			WithSource(apierr.SourceClientFraming).WithCause(err).WithRequestID(requestIDOf(c)))
		return
	}
	if req.Token == "" {
		writeAPIError(c, apierr.New(apierr.CodeMalformedBody, "token is required").
			WithSource(apierr.SourceClientFraming).WithRequestID(requestIDOf(c)))
		return
	}

	var patch tokstore.Meta
	hasPatch := req.Meta != nil
	if hasPatch {
		if err := json.Unmarshal(*req.Meta, &patch); err != nil || patch == nil {
			writeAPIError(c, apierr.New(apierr.CodeMalformedBody, "meta must be a JSON object").
				WithSource(apierr.SourceClientFraming).WithCause(err).WithRequestID(requestIDOf(c)))
			return
		}
	}

	_, span := a.startSpan(c, tracing.SpanRotate, tracing.AttributeHasMeta.Bool(hasPatch))
	defer span.End()

	entry, err := a.Store.Rotate(req.Token, patch, hasPatch)
	if errors.Is(err, tokstore.ErrInvalidToken) {
		span.SetAttributes(tracing.AttributeResult.String("invalid"))
		metrics.RecordTokenOperation("rotate", "invalid")
		loggerFrom(c).WithField("request_id", requestIDOf(c)).Info("rotate: invalid token")
		writeRotateInvalid(c)
		return
	}
	if err != nil {
		span.SetAttributes(tracing.AttributeResult.String("error"))
		metrics.RecordTokenOperation("rotate", "error")
		writeAPIError(c, apierr.New(apierr.CodeInternal, "failed to rotate token").
			WithSource(apierr.SourceInvariant).WithCause(err).WithRequestID(requestIDOf(c)))
		return
	}

	span.SetAttributes(tracing.AttributeResult.String("ok"))
	metrics.RecordTokenOperation("rotate", "ok")
	metrics.SetActiveTokens(float64(a.Store.Len()))
	writeRotateOk(c, entry.Token, entry.Meta)
}

// removeRequest is the wire shape for DELETE /token.
type removeRequest struct {
	Token string `json:"token"`
}

func (a *API) handleRemove(c *gin.Context) {
	body, apiErr := readBody(c)
	if apiErr != nil {
		writeAPIError(c, apiErr)
		return
	}

	var req removeRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Token == "" {
		writeAPIError(c, apierr.New(apierr.CodeMalformedBody, "token is required").
			WithSource(apierr.SourceClientFraming).WithRequestID(requestIDOf(c)))
		return
	}

	_, span := a.startSpan(c, tracing.SpanRemove)
	defer span.End()

	a.Store.Remove(req.Token)
	metrics.RecordTokenOperation("remove", "ok")
	metrics.SetActiveTokens(float64(a.Store.Len()))
	c.Status(202)
}

func (a *API) handleDump(c *gin.Context) {
	if !a.DumpEnabled {
		writeAPIError(c, apierr.New(apierr.CodeDumpDisabled, "dump is disabled").
			WithSource(apierr.SourceConfiguration).WithRequestID(requestIDOf(c)))
		return
	}

	_, span := a.startSpan(c, tracing.SpanDump)
	defer span.End()

	snapshot := a.Store.Dump()
	logger := loggerFrom(c)
	logger.WithField("entries", len(snapshot)).Info("token store dump")

	if a.Digest != nil {
		digest, err := a.Digest.Sign(len(snapshot), time.Now())
		if err != nil {
			logger.WithError(err).Warn("failed to sign dump digest")
		} else {
			logger.WithField("digest", digest).Info("dump digest")
		}
	}

	c.Status(202)
}

func (a *API) handlePing(c *gin.Context) {
	c.String(200, "pong")
}

func (a *API) handleShutdown(c *gin.Context) {
	c.Status(200)
	if a.ShutdownOnce != nil {
		go a.ShutdownOnce()
	}
}

func handleNotFound(c *gin.Context) {
	writeAPIError(c, apierr.New(apierr.CodeNotFound, "no such route").
		WithSource(apierr.SourceClientFraming).WithRequestID(requestIDOf(c)))
}

func handleMethodNotAllowed(c *gin.Context) {
	writeAPIError(c, apierr.New(apierr.CodeMethodNotAllowed, "method not allowed for this route").
		WithSource(apierr.SourceClientFraming).WithRequestID(requestIDOf(c)))
}
