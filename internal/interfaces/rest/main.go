package rest

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/abdabkim/webdevacademy/internal/catalog"
	infra "github.com/abdabkim/webdevacademy/internal/infrastructure"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/auth"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/driver"
	"github.com/abdabkim/webdevacademy/internal/infrastructure/validate"
	"github.com/abdabkim/webdevacademy/internal/interfaces/rest/handler"
	"github.com/abdabkim/webdevacademy/internal/interfaces/rest/middleware"
	"github.com/abdabkim/webdevacademy/internal/metrics"
	"github.com/abdabkim/webdevacademy/internal/progress"
	"github.com/abdabkim/webdevacademy/internal/review"
	"github.com/abdabkim/webdevacademy/internal/streak"
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

// CompletionLockPrefix kv key prefix of the per-user completion lock
const CompletionLockPrefix = "lock:complete:"

// Dependencies collaborators of the http transport
type Dependencies struct {
	Conn            driver.ITransactionalDB
	KV              driver.KeyValueDB
	Catalog         *catalog.Catalog
	ProgressUseCase progress.ProgressUseCase
	StreakUseCase   streak.StreakUseCase
	ReviewUseCase   review.ReviewUseCase
	Metrics         *metrics.Metrics
	Logger          *zap.Logger
}

// NewServer create http transport server
func NewServer(option *infra.AppConfig, deps *Dependencies) *echo.Echo {
	var (
		app            = echo.New()
		logger         = deps.Logger
		validator      = validate.NewValidator("en")
		jwtUtil        = auth.NewJWTUtil(option.Security.JWTMethod, option.Security.JWTSecret, option.Security.TokenName)
		jwtMiddleware  = middleware.VerifyToken(jwtUtil)
		lockMiddleware = middleware.UserLock(deps.KV, jwtUtil, &middleware.UserLockOption{
			Prefix: CompletionLockPrefix,
			TTL:    option.RequestTimeout,
		})
	)
	app.HideBanner = true
	app.HidePort = true

	if option.DevOP.Metrics {
		app.Use(middleware.RequestMetrics(deps.Metrics))
	}
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			path := e.Request().URL.Path
			return strings.HasPrefix(path, "/healthz") || strings.HasPrefix(path, "/metrics")
		},
	}))
	app.Use(middleware.ErrorHandling(&middleware.ErrorHandlingOption{Handler: handler.HandleError}))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORS())
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
	}))

	registerLivenessProbe(app, deps.Conn, deps.KV)
	if option.DevOP.Metrics {
		app.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}

	var (
		CourseHandler   = handler.NewCourseHandler(deps.Catalog, deps.ProgressUseCase, jwtUtil, validator)
		ProgressHandler = handler.NewProgressHandler(deps.Catalog, deps.ProgressUseCase, jwtUtil, validator)
		StreakHandler   = handler.NewStreakHandler(deps.StreakUseCase, jwtUtil)
		ReviewHandler   = handler.NewReviewHandler(deps.ReviewUseCase, jwtUtil, validator)
	)

	createEndpoint(app,
		&endpoint{
			apiVersion:  "api/v1",
			middlewares: []echo.MiddlewareFunc{echo_middleware.RequestID(), middleware.SetTraceLogger(logger)},
			groups: []*apiGroup{
				{
					prefix:      "/courses",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", "courses.list", CourseHandler.HandleListCourses, nil},
						{"GET", "/:course/lessons", "courses.lessons", CourseHandler.HandleListLessons, nil},
						{"POST", "/:course/start", "courses.start", CourseHandler.HandleStartCourse, nil},
						{"POST", "/:course/lessons/:lesson/complete", "courses.complete_lesson", CourseHandler.HandleCompleteLesson, []echo.MiddlewareFunc{lockMiddleware}},
					},
				},
				{
					prefix:      "/progress",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", "progress.list", ProgressHandler.HandleListProgress, nil},
						{"GET", "/stats", "progress.stats", ProgressHandler.HandleGetStats, nil},
						{"GET", "/:course", "progress.get", ProgressHandler.HandleGetProgress, nil},
					},
				},
				{
					prefix:      "/streak",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", "streak.get", StreakHandler.HandleGetStreak, nil},
						{"GET", "/activity", "streak.activity", StreakHandler.HandleListActivity, nil},
						{"POST", "/recompute", "streak.recompute", StreakHandler.HandleRecompute, nil},
					},
				},
				{
					prefix:      "/cards",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", "cards.list", ReviewHandler.HandleListCards, nil},
						{"POST", "", "cards.create", ReviewHandler.HandleCreateCard, nil},
						{"GET", "/due", "cards.due", ReviewHandler.HandleDueCard, nil},
						{"POST", "/:card/review", "cards.review", ReviewHandler.HandleReviewCard, nil},
					},
				},
			},
		})

	printRoutes(app, logger)
	return app
}

// Serve run app on addr until ctx is done, then shut it down gracefully
func Serve(ctx context.Context, app *echo.Echo, addr string, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("server.address", addr))
		errc <- app.Start(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			logger.Debug("Registered route",
				zap.String("route.name", route.Name),
				zap.String("http.request.method", route.Method),
				zap.String("http.route", route.Path),
			)
		}
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.ITransactionalDB, kv driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		if db.Ping() == nil && kv.Ping() == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

func registerProfileEndpoints(app *echo.Echo) {
	expvarHandler := expvar.Handler()
	app.GET("/debug/vars", func(c echo.Context) error {
		expvarHandler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/", func(c echo.Context) error {
		pprof.Index(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/:name", func(c echo.Context) error {
		switch c.Param("name") {
		case "cmdline":
			pprof.Cmdline(c.Response().Writer, c.Request())
		case "profile":
			pprof.Profile(c.Response().Writer, c.Request())
		case "symbol":
			pprof.Symbol(c.Response().Writer, c.Request())
		case "trace":
			pprof.Trace(c.Response().Writer, c.Request())
		default:
			pprof.Handler(c.Param("name")).ServeHTTP(c.Response().Writer, c.Request())
		}
		return nil
	})
}
