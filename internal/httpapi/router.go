// Package httpapi is the HTTP dispatcher (spec §4.3, component C6): it
// parses requests, calls exactly one pkg/tokstore operation, and encodes the
// outcome. It owns every HTTP-specific concern (status codes, content-type
// enforcement, JSON shapes) so pkg/tokstore never has to know it is being
// driven over HTTP.
package httpapi

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hakr/tokserver/internal/metrics"
	"github.com/hakr/tokserver/internal/tracing"
	"github.com/hakr/tokserver/pkg/tokstore"
)

const loggerKey = "tokserver.logger"

// API wires the store and its optional companions to the HTTP surface.
type API struct {
	Store        *tokstore.Store
	DumpEnabled  bool
	Logger       *logrus.Logger
	Tracer       *tracing.Provider      // optional, nil disables spans
	Digest       *tokstore.DigestSigner // optional, nil disables the signed dump digest
	ShutdownOnce func()                 // invoked exactly once by GET /shutdown
}

// startSpan starts a span for the request if a tracer is configured,
// otherwise returns a no-op span so handler code never has to branch on it.
// Every span carries the request's correlation id so it can be matched back
// to the structured log line for the same request.
func (a *API) startSpan(c *gin.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if a.Tracer == nil {
		ctx := c.Request.Context()
		return ctx, trace.SpanFromContext(ctx)
	}
	attrs = append(attrs, tracing.AttributeRequestID.String(requestIDOf(c)))
	return a.Tracer.StartSpan(c.Request.Context(), name, attrs...)
}

// NewRouter builds the gin engine with every route from spec §6.
func NewRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Set(loggerKey, api.Logger)
		c.Next()
	})
	r.Use(requestID())
	r.Use(requestLogger(api.Logger))
	r.Use(observeLatency())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD"}
	r.Use(cors.New(corsCfg))

	metrics.Register()

	token := r.Group("/token")
	token.POST("", requireJSONBody(), api.handleCreate)
	token.PUT("", requireJSONBody(), api.handleRotate)
	token.DELETE("", requireJSONBody(), api.handleRemove)

	r.HEAD("/dump", api.handleDump)
	r.GET("/ping", api.handlePing)
	r.GET("/shutdown", api.handleShutdown)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.NoRoute(handleNotFound)
	r.NoMethod(handleMethodNotAllowed)

	return r
}

func loggerFrom(c *gin.Context) *logrus.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logrus.Logger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}
