package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /api/health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Liveness reports that the process is up.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  livenessResponse
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{
		Status:  "ok",
		Message: "Server is running",
	})
}

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// ReadinessHandler handles GET /api/health/ready. Every registered
// dependency must answer its ping for the service to be ready. Ping errors
// are logged, never rendered.
type ReadinessHandler struct {
	checks map[string]PingFunc
	log    zerolog.Logger
}

func NewReadinessHandler(checks map[string]PingFunc, log zerolog.Logger) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness pings every dependency.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks))
	healthy := true

	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = dependencyStatus{Status: "down"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
