package middleware

import (
	"time"

	"github.com/abdabkim/webdevacademy/internal/metrics"
	"github.com/labstack/echo/v4"
)

// RequestMetrics observe request duration by route template, method and status
func RequestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			m.ObserveRequest(c.Path(), c.Request().Method, c.Response().Status, time.Since(start))
			return err
		}
	}
}
