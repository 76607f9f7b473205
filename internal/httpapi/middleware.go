package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hakr/tokserver/internal/metrics"
	"github.com/hakr/tokserver/pkg/apierr"
)

// requestLogger logs one structured line per request, in the teacher's
// logrus JSON-formatter style.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		logger.WithFields(logrus.Fields{
			"client_ip":   p.ClientIP,
			"timestamp":   p.TimeStamp.Format(time.RFC3339),
			"method":      p.Method,
			"path":        p.Path,
			"status_code": p.StatusCode,
			"latency":     p.Latency,
			"request_id":  p.Keys["RequestID"],
		}).Info("http request")
		return ""
	})
}

// requestID stamps every request with a correlation id, generated with
// google/uuid when the caller didn't supply one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("RequestID", id)
		c.Next()
	}
}

// observeLatency records the tokserver_http_request_duration_seconds
// histogram for every request.
func observeLatency() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(route, c.Request.Method, statusClass(c.Writer.Status()), time.Since(start))
	}
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// requireJSONBody enforces the content-type policy of spec §4.3/§6 for
// routes that accept a body: any Content-Type other than application/json
// yields 415 and the store is never touched.
func requireJSONBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}
		if c.ContentType() != "application/json" {
			writeAPIError(c, apierr.New(apierr.CodeUnsupportedMedia, "Content-Type must be application/json").
				WithSource(apierr.SourceClientFraming))
			c.Abort()
			return
		}
		c.Next()
	}
}
