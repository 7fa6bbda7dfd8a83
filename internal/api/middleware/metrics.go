package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/propscope/propscope/internal/observability/metrics"
)

// NewHTTPMetrics creates a middleware that records request counts,
// durations, and response sizes. Paths are labeled by route template so
// parameterized routes stay at bounded cardinality.
func NewHTTPMetrics(httpMetrics *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if httpMetrics == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			status := c.Response().Status
			if status == 0 {
				status = 200
			}

			httpMetrics.RecordRequest(method, path, strconv.Itoa(status))
			httpMetrics.RecordRequestDuration(method, path, time.Since(start).Seconds())
			httpMetrics.RecordResponseSize(method, path, int(c.Response().Size))

			return err
		}
	}
}
