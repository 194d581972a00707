package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestTimeout bounds every request with a context deadline. Handlers
// are not killed; downstream code observes ctx.Done() — the provider
// gateway and the cache manager both take the request context. A non-
// positive duration disables the middleware.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// Once the handler wrote a response the status is out of our
		// hands; only a silent deadline turns into a 504.
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
			"error": "request timeout",
		})
	}
}
