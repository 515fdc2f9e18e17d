package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitConcurrentRequests returns a Gin middleware that limits the number
// of concurrent requests through the route it guards. Excess requests are
// rejected with HTTP 429.
//
// Used on the event stream so long-lived SSE clients cannot pile up.
//
//	r.GET("/api/recordings/events", LimitConcurrentRequests(16), h.Events)
func LimitConcurrentRequests(maxConcurrent int) gin.HandlerFunc {
	semaphore := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many concurrent requests",
			})
		}
	}
}
