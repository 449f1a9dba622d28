package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandlingOption options for error handling
type ErrorHandlingOption struct {
	Handler func(c echo.Context, err error)
}

// ErrorHandling turn errors and panics returned from handlers into responses
// **DO NOT return error anymore**
func ErrorHandling(options ...*ErrorHandlingOption) echo.MiddlewareFunc {
	custom := &ErrorHandlingOption{
		Handler: func(c echo.Context, err error) {
			c.String(http.StatusInternalServerError, err.Error())
		},
	}
	if len(options) > 0 {
		option := options[0]
		if option.Handler != nil {
			custom.Handler = option.Handler
		}
	}
	handler := custom.Handler
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returned error) {
			defer func() {
				if any := recover(); any != nil {
					err, ok := any.(error)
					if !ok {
						err = fmt.Errorf("panic: %v", any)
					}
					handler(c, err)
					returned = nil
				}
			}()
			if err := next(c); err != nil {
				handler(c, err)
			}
			return nil
		}
	}
}
