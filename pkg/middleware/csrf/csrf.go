package csrf

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Config struct {
	CookieName string
	HeaderName string
	// AuthCookieName is the cookie that carries the session credential.
	// Requests without it have nothing a cross-site page could ride on.
	AuthCookieName string

	CookiePath string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName:     "XSRF-TOKEN",
		HeaderName:     "X-CSRF-Token",
		AuthCookieName: "accessToken",
		CookiePath:     "/",
		SameSite:       http.SameSiteLaxMode,
		MaxAge:         24 * time.Hour,
	}
}

// Middleware enforces a double-submit token only on cookie-authenticated requests.
// Bearer requests are exempt: browsers never attach the Authorization header on their own.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.AuthCookieName == "" {
		cfg.AuthCookieName = def.AuthCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return true
			}
			if scheme, _, ok := strings.Cut(req.Header.Get(echo.HeaderAuthorization), " "); ok && strings.EqualFold(scheme, "Bearer") {
				return true
			}
			_, err := req.Cookie(cfg.AuthCookieName)
			return err != nil
		},
		TokenLookup:    "header:" + cfg.HeaderName,
		CookieName:     cfg.CookieName,
		CookiePath:     cfg.CookiePath,
		CookieSecure:   cfg.Secure,
		CookieSameSite: cfg.SameSite,
		CookieMaxAge:   int(cfg.MaxAge.Seconds()),
	})
}
