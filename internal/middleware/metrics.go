package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/service"
)

// Metrics records per-route request durations and counts. The scrape
// endpoint itself is excluded so Prometheus polling does not dominate the
// histogram.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if metricsSvc == nil || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
