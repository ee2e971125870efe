package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/Skotchmaster/order_backend/internal/repo"
	"github.com/Skotchmaster/order_backend/internal/transport"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// OrderTotal is Σ(price × quantity) rounded to 2 decimal places.
func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}

func productIDs(items []models.OrderItem) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

func validateItems(items []transport.CreateOrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	for i, it := range items {
		if it.ProductID == 0 {
			return fmt.Errorf("%w: items[%d].productId required", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be > 0", ErrValidation, i)
		}
	}
	return nil
}

func (s *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest, userID uint) (*transport.OrderResponse, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", userID)

	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	var resp transport.OrderResponse
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		order := models.Order{
			Status:     models.StatusPending,
			TotalPrice: decimal.Zero,
			UserID:     userID,
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			product, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
				}
				return fmt.Errorf("load product %d: %w", line.ProductID, err)
			}
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  uint(line.Quantity),
				Price:     product.Price,
			})
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		stored, err := tx.ListOrderItems(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("reload order items: %w", err)
		}
		products, err := tx.ProductSummaries(ctx, productIDs(stored))
		if err != nil {
			return fmt.Errorf("load product projection: %w", err)
		}

		total := OrderTotal(stored)
		if err := tx.UpdateOrderTotal(ctx, order.ID, total); err != nil {
			return fmt.Errorf("store order total: %w", err)
		}

		full, err := tx.GetOrder(ctx, order.ID, userID)
		if err != nil {
			return fmt.Errorf("reload order %d: %w", order.ID, err)
		}

		resp = transport.NewOrderResponse(full, products, total)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Error("create_order_failed", "error", err)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":       "order_created",
		"orderID":    resp.ID,
		"userID":     userID,
		"totalPrice": resp.TotalPrice,
		"items":      len(resp.Items),
	})
	l.Info("order_created", "order_id", resp.ID, "total", resp.TotalPrice)
	return &resp, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id, userID uint) (*transport.OrderResponse, error) {
	order, err := s.Repo.GetOrder(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}

	products, err := s.Repo.ProductSummaries(ctx, productIDs(order.Items))
	if err != nil {
		return nil, err
	}

	resp := transport.NewOrderResponse(order, products, OrderTotal(order.Items))
	return &resp, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint) ([]transport.OrderResponse, error) {
	orders, err := s.Repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	var all []models.OrderItem
	for i := range orders {
		all = append(all, orders[i].Items...)
	}
	products, err := s.Repo.ProductSummaries(ctx, productIDs(all))
	if err != nil {
		return nil, err
	}

	out := make([]transport.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, transport.NewOrderResponse(&orders[i], products, OrderTotal(orders[i].Items)))
	}
	return out, nil
}

func (s *OrderService) UpdateOrder(ctx context.Context, id, userID uint, req transport.UpdateOrderRequest) (*transport.OrderRecord, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
	}

	var rec transport.OrderRecord
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.FindOwnedOrderForUpdate(ctx, id, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, id)
			}
			return err
		}

		fields := map[string]any{}
		if req.Status != nil {
			fields["status"] = *req.Status
		}
		if err := tx.UpdateOrderFields(ctx, order, fields); err != nil {
			return err
		}

		rec = transport.NewOrderRecord(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		publish(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(userID), 10), map[string]any{
			"type":    "order_status_updated",
			"orderID": rec.ID,
			"userID":  userID,
			"status":  rec.Status,
		})
	}
	return &rec, nil
}

// DeleteOrder removes the items and then the order in one transaction.
func (s *OrderService) DeleteOrder(ctx context.Context, id, userID uint) (*transport.OrderRecord, error) {
	var rec transport.OrderRecord
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.FindOwnedOrderForUpdate(ctx, id, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, id)
			}
			return err
		}

		if err := tx.DeleteOrderItems(ctx, order.ID); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err := tx.DeleteOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		rec = transport.NewOrderRecord(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":    "order_deleted",
		"orderID": rec.ID,
		"userID":  userID,
	})
	return &rec, nil
}
