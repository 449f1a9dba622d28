package middleware

import (
	"net/http"
	"time"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type LoggingConfig struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper
}

// Logging create a logging middleware with zap logger
func Logging(base *zap.Logger, options ...*LoggingConfig) echo.MiddlewareFunc {
	cfg := &LoggingConfig{
		Skipper: middleware.DefaultSkipper,
	}
	if len(options) > 0 {
		option := options[0]
		if option.Skipper != nil {
			cfg.Skipper = option.Skipper
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			// handlers further down replace the request, its logger already carries
			// trace.id and, past VerifyToken, user.id
			r := c.Request()
			logger, ok := r.Context().Value(logging.ContextLoggerKey).(*zap.Logger)
			if !ok || logger == nil {
				logger = base.With(zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)))
			}
			logger = logger.With(
				zap.String("url.path", r.RequestURI),
				zap.String("http.route", c.Path()),
				zap.String("client.address", r.RemoteAddr),
				zap.String("http.request.method", r.Method),
				zap.Int64("http.request.body.byte", r.ContentLength),
				zap.Duration("event.duration", time.Since(start)),
			)
			if name, ok := c.Get(RouteNameKey).(string); ok {
				logger = logger.With(zap.String("route.name", name))
			}
			if len(c.ParamNames()) > 0 {
				logger = logger.With(
					zap.Strings("route.params.name", c.ParamNames()),
					zap.Strings("route.params.value", c.ParamValues()),
				)
			}
			code := c.Response().Status
			if code >= http.StatusInternalServerError {
				logger.Warn(http.StatusText(code), zap.Int("http.response.status_code", code))
			} else {
				logger.Info(http.StatusText(code), zap.Int("http.response.status_code", code))
			}
			return err
		}
	}
}

// RouteNameKey echo context key holding the name of the matched route
const RouteNameKey = "route.name"

// NameRoute tag requests of a route with name, picked up by Logging
func NameRoute(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(RouteNameKey, name)
			return next(c)
		}
	}
}

// SetTraceLogger set logger binding with trace ID into context
func SetTraceLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			logger := base.With(zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)))
			nr := r.WithContext(logging.SetLoggerInContext(r.Context(), logger))
			c.SetRequest(nr)
			return next(c)
		}
	}
}
