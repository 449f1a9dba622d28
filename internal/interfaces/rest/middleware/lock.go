package middleware

import (
	"net/http"
	"time"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserLockOption ...
type UserLockOption struct {
	// Prefix key prefix, the user id is appended
	Prefix string
	// TTL lock lifetime, bounds how long a crashed request can hold it
	TTL time.Duration
}

// UserLock allow one in-flight request per user on the wrapped routes, concurrent ones get
// 429. Must be chained after VerifyToken.
func UserLock(kv driver.KeyValueDB, ju *auth.JWTUtil, option *UserLockOption) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ju.GetContextToken(c)
			if claims == nil {
				return c.NoContent(http.StatusUnauthorized)
			}
			key := option.Prefix + claims.UID
			acquired, err := kv.SetNX(key, c.Response().Header().Get(echo.HeaderXRequestID), option.TTL)
			if err != nil {
				return err
			}
			if !acquired {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Another request of this user is in progress")
			}
			defer func() {
				if err := kv.Del(key); err != nil {
					logging.ExtractLoggerFromContext(c.Request().Context()).Warn("Failed to release user lock",
						zap.String("kv.key", key), zap.Error(err))
				}
			}()
			return next(c)
		}
	}
}
