package http

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/learn-progress/internal/domain"
	infra "github.com/pot-code/learn-progress/internal/infrastructure"
	"github.com/pot-code/learn-progress/internal/infrastructure/auth"
	"github.com/pot-code/learn-progress/internal/infrastructure/validate"
	"github.com/pot-code/learn-progress/internal/interfaces/http/middleware"
	"github.com/pot-code/learn-progress/internal/usecase"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

// Dependencies collaborators exposed through the bridge
type Dependencies struct {
	Progress  *usecase.ProgressUseCase
	Sync      *usecase.SyncController
	Prober    *usecase.ConnectivityProber
	Store     domain.PendingStore
	Token     *auth.BearerToken
	Validator validate.Validator
	Logger    *zap.Logger
}

// NewServer create the bridge app with every route registered
func NewServer(option *infra.AppConfig, deps *Dependencies) *echo.Echo {
	var (
		app    = echo.New()
		logger = deps.Logger
	)
	app.HideBanner = true
	app.HidePort = true

	registerLivenessProbe(app, deps.Store)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz")
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, traceID string, err error) {
				code := StatusOf(err)
				c.JSON(code, NewRESTStandardError(code, err.Error()).SetTraceID(traceID))
				if code >= http.StatusInternalServerError {
					logger.Error(err.Error(), zap.String("trace.id", traceID))
				}
			},
			Logger: logger,
		},
	))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORS())
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Skipper: func(e echo.Context) bool {
			return strings.HasSuffix(e.Path(), "/ws/sync")
		},
		Timeout: option.RequestTimeout,
	}))
	app.Use(middleware.NoRouteMatched())

	var (
		LessonHandler = NewLessonHandler(deps.Progress, deps.Validator)
		CourseHandler = NewCourseHandler(deps.Progress, deps.Sync)
		SyncHandler   = NewSyncHandler(deps.Sync, deps.Prober)
	)

	createEndpoint(app, &endpoint{
		apiVersion:  "api/v1",
		middlewares: []echo.MiddlewareFunc{
			echo_middleware.RequestID(),
			middleware.SetTraceLogger(logger),
			middleware.ForwardToken(deps.Token),
		},
		groups: []*apiGroup{
			{
				prefix: "/lessons",
				routes: []*route{
					{"GET", "/:id/progress", LessonHandler.HandleGetProgress, nil},
					{"POST", "/:id/start", LessonHandler.HandleStart, nil},
					{"POST", "/:id/complete", LessonHandler.HandleComplete, nil},
					{"PATCH", "/:id/progress", LessonHandler.HandleUpdateProgress, nil},
				},
			},
			{
				prefix: "/courses",
				routes: []*route{
					{"GET", "/:id/progress", CourseHandler.HandleGetCourseProgress, nil},
					{"GET", "/:id/dashboard", CourseHandler.HandleGetDashboard, nil},
					{"POST", "/:id/dashboard/refresh", CourseHandler.HandleRefreshDashboard, nil},
				},
			},
			{
				prefix: "/me",
				routes: []*route{
					{"GET", "/summary", CourseHandler.HandleGetSummary, nil},
				},
			},
			{
				prefix: "/sync",
				routes: []*route{
					{"GET", "", SyncHandler.HandleGetSync, nil},
					{"POST", "", SyncHandler.HandleSync, nil},
				},
			},
			{
				prefix: "/connectivity",
				routes: []*route{
					{"POST", "", SyncHandler.HandleConnectivity, nil},
				},
			},
			{
				prefix: "/ws",
				routes: []*route{
					{"GET", "/sync", infra.WithHeartbeat(SyncHandler.HandleSyncStream), nil},
				},
			},
		},
	})
	return app
}

// Serve run the bridge until ctx is done
func Serve(ctx context.Context, option *infra.AppConfig, deps *Dependencies) error {
	app := NewServer(option, deps)
	printRoutes(app, deps.Logger)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", option.Host, option.Port)
		deps.Logger.Info("bridge listening", zap.String("address", addr))
		errCh <- app.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			name := route.Name
			trimIndex := strings.LastIndexByte(name, '/')
			logger.Debug("Registered route", zap.String("method", route.Method), zap.String("path", route.Path), zap.String("name", string(name[trimIndex+1:])))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, store domain.PendingStore) {
	app.GET("/healthz", func(c echo.Context) error {
		if store.Ping() == nil {
			c.NoContent(http.StatusOK)
		} else {
			c.NoContent(http.StatusServiceUnavailable)
		}
		return nil
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

func createEndpoint(app *echo.Echo, def *endpoint) {
	type RESTMethod func(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route

	var root *echo.Group
	if strings.HasPrefix(def.apiVersion, "/") {
		root = app.Group(def.apiVersion, def.middlewares...)
	} else {
		root = app.Group("/"+def.apiVersion, def.middlewares...)
	}

	for _, group := range def.groups {
		echoGroup := root.Group(group.prefix, group.middlewares...)
		for _, api := range group.routes {
			var method RESTMethod
			switch api.method {
			case "GET":
				method = echoGroup.GET
			case "POST":
				method = echoGroup.POST
			case "PUT":
				method = echoGroup.PUT
			case "PATCH":
				method = echoGroup.PATCH
			case "DELETE":
				method = echoGroup.DELETE
			case "HEAD":
				method = echoGroup.HEAD
			default:
				panic(fmt.Errorf("createEndpoint: unknown method %s", api.method))
			}
			method(api.path, api.handler, api.middlewares...)
		}
	}
}
