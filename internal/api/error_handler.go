package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

const (
	msgEndpointNotFound = "Endpoint not found"
	msgInternal         = "Internal server error"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// kindStatus maps domain error kinds to HTTP status codes.
var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrTooManyRequests, http.StatusTooManyRequests},
	{domain.ErrInternal, http.StatusInternalServerError},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs internal errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var de *domain.Error
	if errors.As(err, &de) {
		for _, ks := range kindStatus {
			if errors.Is(de.Kind, ks.kind) {
				if ks.status == http.StatusInternalServerError {
					logUnexpected(log, c, err)
				}
				return ks.status, de.Message
			}
		}
	}

	// Echo's own errors (router 404/405, body too large, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, msgEndpointNotFound
		case http.StatusInternalServerError:
			logUnexpected(log, c, err)
			return he.Code, msgInternal
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	logUnexpected(log, c, err)
	return http.StatusInternalServerError, msgInternal
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("request failed")
}
