package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header checked for a caller-supplied request ID
// and set on every response, carrying either the forwarded or the
// generated ID.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin.Context key the generated or forwarded ID is
// stored under for downstream handlers and log lines to pick up.
const requestIDKey = "request_id"

// RequestID tags every request with a correlation ID, reusing one the
// caller supplies via RequestIDHeader or minting a fresh UUID otherwise.
// This is unrelated to a pipeline run's own ULID (internal/shared/id) —
// it identifies the HTTP request/response pair, not a run.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)
		c.Next()
	}
}

// RequestIDFromContext returns the request ID set by RequestID, or "" if
// the middleware was never installed.
func RequestIDFromContext(c *gin.Context) string {
	v, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
