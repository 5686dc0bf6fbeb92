package middleware

import (
	"time"

	"github.com/anonto42/nano-midea/socialgraph/pkg/metrics"
	"github.com/labstack/echo/v4"
)

// Metrics records request count and latency per route template
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = 500
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			metrics.ObserveHTTPRequest(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}
