package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID keys the per-request ID in the Gin context. The same
// ID lands in the response metadata and the X-Request-ID header so a client
// report can be matched to server logs.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID. An incoming
// X-Request-ID is kept and echoed back; otherwise a fresh UUID is issued.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
