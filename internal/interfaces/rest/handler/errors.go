package handler

import (
	"errors"
	"net/http"

	"github.com/abdabkim/webdevacademy/internal/domain"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/validate"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RESTStandardError response error
type RESTStandardError struct {
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func NewRESTStandardError(code int, detail string) *RESTStandardError {
	return &RESTStandardError{
		Code:   code,
		Title:  http.StatusText(code),
		Detail: detail,
	}
}

func (re RESTStandardError) Error() string {
	return re.Detail
}

func (re RESTStandardError) SetTraceID(traceID string) RESTStandardError {
	re.TraceID = traceID
	return re
}

// RESTValidationError standard validation error
type RESTValidationError struct {
	RESTStandardError
	InvalidParams []*validate.FieldError `json:"invalid_params"`
}

func NewRESTValidationError(code int, detail string, internal []*validate.FieldError) *RESTValidationError {
	return &RESTValidationError{
		RESTStandardError: RESTStandardError{
			Code:   code,
			Title:  http.StatusText(code),
			Detail: detail,
		},
		InvalidParams: internal,
	}
}

func (rve RESTValidationError) Error() string {
	return rve.Detail
}

func (rve RESTValidationError) SetTraceID(traceID string) RESTValidationError {
	rve.RESTStandardError.TraceID = traceID
	return rve
}

// ValidationFailed 400 response listing invalid params
func ValidationFailed(c echo.Context, detail string, fields []*validate.FieldError) error {
	return c.JSON(http.StatusBadRequest,
		NewRESTValidationError(http.StatusBadRequest, detail, fields).SetTraceID(traceID(c)))
}

// StatusOf http status for errors returned by use cases
func StatusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrCourseNotStarted), errors.Is(err, domain.ErrCourseAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownCourse), errors.Is(err, domain.ErrUnknownLesson), errors.Is(err, domain.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// HandleError write err as a RESTStandardError. Server side failures are logged with the
// request logger, the detail of unexpected errors is not exposed.
func HandleError(c echo.Context, err error) {
	if c.Response().Committed {
		return
	}
	code := StatusOf(err)
	detail := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		logging.ExtractLoggerFromContext(c.Request().Context()).Error("Request failed",
			zap.Int("http.response.status_code", code),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			detail = domain.ErrStoreUnavailable.Error()
		case errors.Is(err, domain.ErrInvariantViolation):
			detail = domain.ErrInvariantViolation.Error()
		case he == nil:
			detail = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(code)
		return
	}
	c.JSON(code, NewRESTStandardError(code, detail).SetTraceID(traceID(c)))
}

func traceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
