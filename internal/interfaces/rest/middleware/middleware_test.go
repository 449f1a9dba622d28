package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), rec
}

func TestErrorHandling(t *testing.T) {
	var handled []error
	mw := ErrorHandling(&ErrorHandlingOption{Handler: func(c echo.Context, err error) {
		handled = append(handled, err)
		c.NoContent(http.StatusTeapot)
	}})

	tests := []struct {
		name string
		next echo.HandlerFunc
		want string
	}{
		{"returned error", func(c echo.Context) error { return errors.New("boom") }, "boom"},
		{"panic error", func(c echo.Context) error { panic(errors.New("kaboom")) }, "kaboom"},
		{"panic value", func(c echo.Context) error { panic(42) }, "panic: 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled = nil
			c, rec := newContext()
			assert.NoError(t, mw(tt.next)(c))
			require.Len(t, handled, 1)
			assert.EqualError(t, handled[0], tt.want)
			assert.Equal(t, http.StatusTeapot, rec.Code)
		})
	}

	handled = nil
	c, _ := newContext()
	assert.NoError(t, mw(func(c echo.Context) error { return nil })(c))
	assert.Empty(t, handled)
}

func TestAbortRequest(t *testing.T) {
	c, _ := newContext()
	var deadline time.Time
	err := AbortRequest(&AbortRequestOption{Timeout: time.Minute})(func(c echo.Context) error {
		var ok bool
		deadline, ok = c.Request().Context().Deadline()
		assert.True(t, ok)
		return nil
	})(c)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestUserLock(t *testing.T) {
	kv := driver.NewMemoryKV()
	ju := auth.NewJWTUtil("HS256", "s3cret", "token")
	mw := UserLock(kv, ju, &UserLockOption{Prefix: "lock:", TTL: time.Minute})

	c, rec := newContext()
	assert.NoError(t, mw(func(c echo.Context) error { return nil })(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, _ = newContext()
	ju.SetContextToken(c, &auth.AppTokenClaims{UID: "u1"})
	err := mw(func(c echo.Context) error {
		held, err := kv.Exists("lock:u1")
		require.NoError(t, err)
		assert.True(t, held)

		// a second request of the same user while the first is running
		inner, _ := newContext()
		ju.SetContextToken(inner, &auth.AppTokenClaims{UID: "u1"})
		innerErr := mw(func(c echo.Context) error { return nil })(inner)
		var he *echo.HTTPError
		require.True(t, errors.As(innerErr, &he))
		assert.Equal(t, http.StatusTooManyRequests, he.Code)
		return nil
	})(c)
	require.NoError(t, err)

	held, err := kv.Exists("lock:u1")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestLoggingCarriesRouteAndUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)
	ju := auth.NewJWTUtil("HS256", "s3cret", "token")

	e := echo.New()
	e.Use(Logging(base))
	e.GET("/courses/:course", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, SetTraceLogger(base), VerifyToken(ju), NameRoute("courses.get"))

	token, err := ju.Issue("u1", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/courses/html", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	e.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage(http.StatusText(http.StatusOK)).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "courses.get", fields["route.name"])
	assert.Equal(t, "/courses/:course", fields["http.route"])
	assert.Equal(t, "u1", fields["user.id"])
	assert.Equal(t, []interface{}{"html"}, fields["route.params.value"])
}

func TestLoggingWithoutRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(Logging(zap.New(core)))
	e.GET("/boom", func(c echo.Context) error {
		return c.NoContent(http.StatusBadGateway)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage(http.StatusText(http.StatusBadGateway)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.NotContains(t, entries[0].ContextMap(), "user.id")
}
