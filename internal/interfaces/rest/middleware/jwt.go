package middleware

import (
	"net/http"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// VerifyToken validate JWT issued by the identity provider and store its claims in the context
func VerifyToken(ju *auth.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}

			token, err := ju.Validate(tokenStr)
			if err != nil {
				logging.ExtractLoggerFromContext(c.Request().Context()).Debug("Rejected token", zap.Error(err))
				return c.NoContent(http.StatusUnauthorized)
			}
			ju.SetContextToken(c, token)

			r := c.Request()
			logger := logging.ExtractLoggerFromContext(r.Context()).With(zap.String("user.id", token.UID))
			c.SetRequest(r.WithContext(logging.SetLoggerInContext(r.Context(), logger)))
			return next(c)
		}
	}
}
