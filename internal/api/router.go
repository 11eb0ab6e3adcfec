package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/smart-inventory/inventory-api/docs"
	"github.com/smart-inventory/inventory-api/internal/api/handler"
	"github.com/smart-inventory/inventory-api/internal/api/middleware"
	"github.com/smart-inventory/inventory-api/internal/core/domain"
	"github.com/smart-inventory/inventory-api/internal/core/ports"
)

const bodyLimit = "1M"

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	AuthService ports.AuthService
	Tokens      ports.TokenParser
	// Readiness lists the dependencies checked by /api/health/ready.
	Readiness map[string]handler.PingFunc
	Logger    zerolog.Logger
	// StaticDir, when set, is served as a single page app with login.html
	// as the fallback page.
	StaticDir string
	// Registerer and Gatherer back the HTTP metrics and /metrics. They
	// default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "inventory",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper:    skipInfra,
	}))
	if d.StaticDir != "" {
		e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
			Root:    d.StaticDir,
			Index:   "login.html",
			HTML5:   true,
			Skipper: isAPIPath,
		}))
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	requireAccess := middleware.Auth(d.Tokens, domain.TokenAccess)
	requireRefresh := middleware.Auth(d.Tokens, domain.TokenRefresh)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register, middleware.OptionalAuth(d.Tokens))
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, requireAccess)
	auth.POST("/refresh", authHandler.Refresh, requireRefresh)
	auth.PUT("/change-role", authHandler.ChangeRole, requireAccess, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness, d.Logger)

	api.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	api.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func skipInfra(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/swagger")
}

func isAPIPath(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/api") || skipInfra(c)
}
