package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/order_backend/internal/service"
	"github.com/Skotchmaster/order_backend/internal/transport"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

const accessCookieName = "accessToken"

type AuthHTTP struct {
	Svc           *service.AuthService
	SecureCookies bool
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, l, "login_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return serviceError(l, "login_error", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     accessCookieName,
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  res.AccessExp,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	l.Info("login_success", "user_id", res.UserID, "admin", res.IsAdmin)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.AccessExp,
	})
}
