package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"avatar-chat/internal/transport/http/response"
)

const RequestIDHeader = "X-Request-ID"

// RequestID keeps a caller supplied id or mints a new one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
