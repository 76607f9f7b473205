package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hakr/tokserver/pkg/apierr"
	"github.com/hakr/tokserver/pkg/tokstore"
)

// writeAPIError maps a structured error to its HTTP status and a small JSON
// body, and logs it at the level appropriate to its source (spec §7):
// client-framing errors at trace level, everything else at a level the
// operator would want to see.
func writeAPIError(c *gin.Context, err *apierr.Error) {
	logger := loggerFrom(c)
	fields := logrus.Fields{
		"code":       err.Code,
		"request_id": err.RequestID,
	}
	if err.Cause != nil {
		fields["cause"] = err.Cause.Error()
	}
	entry := logger.WithFields(fields)
	if err.Source == apierr.SourceClientFraming {
		entry.Trace(err.Message)
	} else {
		entry.Info(err.Message)
	}
	c.JSON(err.Code.HTTPStatus(), gin.H{"error": err.Code, "message": err.Message})
}

// rotateEnvelope is the always-present-exactly-one-of-Ok-or-Err wire shape
// for PUT /token (spec §6, "Wire detail for PUT /token").
type rotateEnvelope struct {
	Ok  *rotateOk `json:"Ok,omitempty"`
	Err string    `json:"Err,omitempty"`
}

type rotateOk struct {
	Token string        `json:"token"`
	Meta  tokstore.Meta `json:"meta"`
}

func writeRotateOk(c *gin.Context, token string, meta tokstore.Meta) {
	c.JSON(200, rotateEnvelope{Ok: &rotateOk{Token: token, Meta: meta}})
}

func writeRotateInvalid(c *gin.Context) {
	c.JSON(200, rotateEnvelope{Err: "InvalidToken"})
}
