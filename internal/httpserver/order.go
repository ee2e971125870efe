package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/order_backend/internal/service"
	"github.com/Skotchmaster/order_backend/internal/transport"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/Skotchmaster/order_backend/pkg/middleware/metrics"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := bindAndValidate(c, l, "create_order_error", &req); err != nil {
		metrics.RecordOrderOperation("create", false)
		return err
	}

	order, err := h.Svc.CreateOrder(ctx, req, userID)
	metrics.RecordOrderOperation("create", err == nil)
	if err != nil {
		return serviceError(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListOrders(ctx, userID)
	metrics.RecordOrderOperation("list", err == nil)
	if err != nil {
		return serviceError(l, "list_orders_error", err)
	}

	l.Info("list_orders_success", "count", len(orders))
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "get_order_error")
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, id, userID)
	metrics.RecordOrderOperation("get", err == nil)
	if err != nil {
		return serviceError(l, "get_order_error", err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "update_order_error")
	if err != nil {
		return err
	}

	var req transport.UpdateOrderRequest
	if err := bindAndValidate(c, l, "update_order_error", &req); err != nil {
		metrics.RecordOrderOperation("update", false)
		return err
	}

	rec, err := h.Svc.UpdateOrder(ctx, id, userID, req)
	metrics.RecordOrderOperation("update", err == nil)
	if err != nil {
		return serviceError(l, "update_order_error", err)
	}

	l.Info("update_order_success", "order_id", rec.ID, "status", rec.Status)
	return c.JSON(http.StatusOK, rec)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, l, "delete_order_error")
	if err != nil {
		return err
	}

	rec, err := h.Svc.DeleteOrder(ctx, id, userID)
	metrics.RecordOrderOperation("delete", err == nil)
	if err != nil {
		return serviceError(l, "delete_order_error", err)
	}

	l.Info("delete_order_success", "order_id", rec.ID)
	return c.JSON(http.StatusOK, rec)
}
