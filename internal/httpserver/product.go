package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/order_backend/internal/service"
	"github.com/Skotchmaster/order_backend/internal/transport"
	"github.com/Skotchmaster/order_backend/internal/util"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := paramID(c, l, "get_product_error")
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return serviceError(l, "get_product_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductResponse(product))
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page, offset, limit := util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)

	total, items, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		return serviceError(l, "get_products_error", err)
	}

	l.Info("get_products_success")
	return c.JSON(http.StatusOK, transport.NewProductPage(items, page, offset, limit, total))
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search_products")

	page, offset, limit := util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return serviceError(l, "search_products_error", err)
	}

	l.Info("search_products_success", "total", total)
	return c.JSON(http.StatusOK, transport.NewProductPage(items, page, offset, limit, total))
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := bindAndValidate(c, l, "create_product_error", &req); err != nil {
		return err
	}

	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return serviceError(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(product))
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	id, err := paramID(c, l, "patch_product_error")
	if err != nil {
		return err
	}

	var req transport.PatchProductRequest
	if err := bindAndValidate(c, l, "patch_product_error", &req); err != nil {
		return err
	}

	product, err := h.Svc.PatchProduct(ctx, req, id)
	if err != nil {
		return serviceError(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(product))
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := paramID(c, l, "delete_product_error")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return serviceError(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
