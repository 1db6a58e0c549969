package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-directory/internal/api/handler"
	"github.com/99minutos/user-directory/internal/api/middleware"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Users  ports.UserService
	Logger zerolog.Logger
	// Readiness maps dependency names to their ping, e.g. "mongodb", "redis".
	Readiness map[string]handler.Check
	// Limiter is nil when rate limiting is disabled.
	Limiter     middleware.Limiter
	CORSOrigins []string
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry, where the service metrics also live.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(middleware.CorrelationID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomiddleware.Recover())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  d.CORSOrigins,
		ExposeHeaders: []string{middleware.HeaderCorrelationID, middleware.HeaderProcessTime},
	}))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "userdir",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	if d.Limiter != nil {
		e.Use(middleware.RateLimit(d.Limiter))
	}

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	// --- API v1 ---
	userHandler := handler.NewUserHandler(d.Users)
	userHandler.Register(e.Group("/api/v1/users"))

	return e
}
