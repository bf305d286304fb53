package middleware

import (
	"strconv"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/gin-gonic/gin"
)

// HTTPMetrics records per-route request metrics
type HTTPMetrics interface {
	RecordHTTPRequest(method, path, status string, duration float64)
}

// Metrics records the method, route template, status and latency of every request
func Metrics(recorder HTTPMetrics, timeProvider coreport.TimeProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := timeProvider.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := timeProvider.Since(start)
		recorder.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), elapsed.Std().Seconds())
	}
}
