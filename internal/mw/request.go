package mw

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"laundry-coordinator/internal/log"
)

const (
	// UserIDHeader carries the caller's asserted user id.
	UserIDHeader = "X-User-ID"
	// RequestIDHeader carries the correlation id of a request.
	RequestIDHeader = "X-Request-ID"
)

// RequestID propagates or assigns a request id and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog writes one line per request through the "api" component logger.
func AccessLog() gin.HandlerFunc {
	logger := log.WithComponent("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := log.WithContext(c.Request.Context(), logger)
		ev := l.Info()
		if c.Writer.Status() >= 500 {
			ev = l.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str(log.FieldUserID, c.GetHeader(UserIDHeader)).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}
