package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header is the request id header honored on the way in and
	// echoed on the way out.
	Header = "X-Request-ID"

	contextKey = "request_id"
)

// Middleware tags every request with an id. An id supplied by the caller
// is trusted and passed through; otherwise a fresh one is minted.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value reads the id tagged on the context, or "" before the middleware ran.
func Value(c *gin.Context) string {
	id, _ := c.Value(contextKey).(string)
	return id
}
