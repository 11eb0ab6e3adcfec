package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
		wantLog  bool
	}{
		{"validation", domain.Validation("Invalid email format"), http.StatusBadRequest, "Invalid email format", false},
		{"conflict", domain.Conflict("Email already exists"), http.StatusConflict, "Email already exists", false},
		{"unauthorized", domain.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password", false},
		{"forbidden", domain.Forbidden("Unauthorized. Admin access required"), http.StatusForbidden, "Unauthorized. Admin access required", false},
		{"not found", domain.NotFound("User not found"), http.StatusNotFound, "User not found", false},
		{"throttled", domain.TooManyRequests("slow down"), http.StatusTooManyRequests, "slow down", false},
		{"internal hides cause", domain.Internal("Login failed", errors.New("database is locked")), http.StatusInternalServerError, "Login failed", true},
		{"echo 401", echo.NewHTTPError(http.StatusUnauthorized, "Only access tokens are allowed"), http.StatusUnauthorized, "Only access tokens are allowed", false},
		{"router 404", echo.ErrNotFound, http.StatusNotFound, "Endpoint not found", false},
		{"router 405", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed", false},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "Internal server error", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer
			e := echo.New()
			e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.New(&logBuf))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			e.HTTPErrorHandler(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["error"] != tt.wantMsg {
				t.Fatalf("expected error %q, got %q", tt.wantMsg, body["error"])
			}
			if strings.Contains(rec.Body.String(), "database is locked") {
				t.Fatalf("internal cause leaked: %s", rec.Body.String())
			}
			if logged := logBuf.Len() > 0; logged != tt.wantLog {
				t.Fatalf("logged = %v, want %v (%s)", logged, tt.wantLog, logBuf.String())
			}
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.String(http.StatusOK, "done")

	e.HTTPErrorHandler(errors.New("late"), c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("committed response was modified: %d %q", rec.Code, rec.Body.String())
	}
}
