package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-eventhub/pkg/metrics"
)

// Metrics records request counts and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.TrackHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
