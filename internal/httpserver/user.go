package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/order_backend/internal/service"
	"github.com/Skotchmaster/order_backend/internal/transport"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, l, "register_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return serviceError(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.NewUserResponse(user))
}

func (h *UserHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.profile")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.Svc.FindByID(ctx, userID)
	if err != nil {
		return serviceError(l, "profile_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_user")

	callerID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "update_user_error")
	if err != nil {
		return err
	}

	var req transport.UpdateUserRequest
	if err := bindAndValidate(c, l, "update_user_error", &req); err != nil {
		return err
	}

	updated, err := h.Svc.UpdateUser(ctx, callerID, id, req)
	if err != nil {
		return serviceError(l, "update_user_error", err)
	}

	l.Info("update_user_success", "user_id", updated.ID)
	return c.JSON(http.StatusOK, updated)
}
