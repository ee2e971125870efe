package httpserver

import (
	"context"
	"net/http"

	middleware "github.com/Skotchmaster/order_backend/pkg/middleware/auth"
	"github.com/Skotchmaster/order_backend/pkg/middleware/metrics"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	UserHandler    *UserHTTP
	OrderHandler   *OrderHTTP
	ProductHandler *ProductHTTP
	JWTSecret      []byte
	// Ready reports whether the storage is reachable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	authMW := middleware.NewBearerAuth(d.JWTSecret)

	e.POST("/auth/login", d.AuthHandler.Login)

	users := e.Group("/users")
	users.POST("/register", d.UserHandler.Register)
	users.GET("/profile", d.UserHandler.Profile, authMW.RequireAuth)
	users.PATCH("/:id", d.UserHandler.UpdateUser, authMW.RequireAuth)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.POST("/create", d.OrderHandler.CreateOrder)
	orders.GET("/list", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id", d.OrderHandler.UpdateOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	products := e.Group("/products", authMW.RequireAuth)
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := e.Group("/products", authMW.RequireAdmin)
	admin.POST("", d.ProductHandler.CreateProduct)
	admin.PATCH("/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/:id", d.ProductHandler.DeleteProduct)
}
