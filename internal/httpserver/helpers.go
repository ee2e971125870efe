package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/order_backend/internal/service"
	"github.com/Skotchmaster/order_backend/internal/util"
	middleware "github.com/Skotchmaster/order_backend/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

// NewEcho returns an echo instance with the strict binder and the request validator installed.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = StrictBinder{}
	e.Validator = NewRequestValidator()
	return e
}

func currentUserID(c echo.Context) (uint, error) {
	raw, _ := c.Get(middleware.ContextUserID).(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return uint(id), nil
}

func paramID(c echo.Context, l *slog.Logger, event string) (uint, error) {
	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", 400, "reason", "id is not a positive integer", "error", err)
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, l *slog.Logger, event string, req any) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			l.Warn(event, "status", he.Code, "reason", "invalid body", "error", err)
			return he
		}
		l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			l.Warn(event, "status", he.Code, "reason", "validation failed", "error", err)
			return he
		}
		l.Error(event, "status", 500, "reason", "cannot validate body", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return nil
}

// serviceError maps service sentinels onto HTTP statuses and logs at the matching level.
func serviceError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(event, "status", 401, "reason", "invalid credentials", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 403, "reason", "forbidden", "error", err)
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "reason", "conflict", "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(event, "status", 500, "reason", "unexpected", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
