package middleware

import (
	"context"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// telemetryRecordTimeout caps how long a slow tally store can hold a request
const telemetryRecordTimeout = 100 * time.Millisecond

// EndpointTelemetry records every inbound (method, path) before any other check.
// Recording failures are logged and never affect the request.
func EndpointTelemetry(tally account.EndpointTally, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		method, path := c.Request.Method, c.Request.URL.Path

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), telemetryRecordTimeout)
		if err := tally.Record(ctx, method, path); err != nil {
			log.Warn("Failed to record endpoint telemetry",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(err),
			)
		}
		cancel()

		c.Next()
	}
}
