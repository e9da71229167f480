package middleware

import (
	"strconv"
	"time"

	appmetrics "linkcard/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records Prometheus request counters and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route template keeps label cardinality bounded; unmatched paths share one label.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		appmetrics.HTTPRequestCounter.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		appmetrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
