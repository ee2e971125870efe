package transport

import (
	"time"

	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/shopspring/decimal"
)

type CreateOrderItem struct {
	ProductID uint `json:"productId" validate:"required,gt=0"`
	Quantity  int  `json:"quantity"  validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderRequest carries only the fields the caller supplied.
type UpdateOrderRequest struct {
	Status *models.OrderStatus `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
}

type ProductSummary struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItemResponse struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"productId"`
	Quantity  uint            `json:"quantity"`
	Price     float64         `json:"price"`
	Product   *ProductSummary `json:"product"`
}

// OrderResponse is the enriched order shape. The owner id is intentionally absent;
// the owner is exposed only through the User projection.
type OrderResponse struct {
	ID         uint                `json:"id"`
	Status     models.OrderStatus  `json:"status"`
	TotalPrice float64             `json:"totalPrice"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
	User       UserSummary         `json:"user"`
	Items      []OrderItemResponse `json:"items"`
}

// OrderRecord is the raw persisted order row.
type OrderRecord struct {
	ID         uint               `json:"id"`
	Status     models.OrderStatus `json:"status"`
	TotalPrice float64            `json:"totalPrice"`
	UserID     uint               `json:"userId"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func NewOrderResponse(o *models.Order, products map[uint]models.ProductSummary, total decimal.Decimal) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
		}
		if p, ok := products[it.ProductID]; ok {
			item.Product = &ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price.InexactFloat64()}
		}
		items = append(items, item)
	}

	return OrderResponse{
		ID:         o.ID,
		Status:     o.Status,
		TotalPrice: total.InexactFloat64(),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		User: UserSummary{
			ID:    o.User.ID,
			Name:  o.User.Name,
			Email: o.User.Email,
		},
		Items: items,
	}
}

func NewOrderRecord(o *models.Order) OrderRecord {
	return OrderRecord{
		ID:         o.ID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice.InexactFloat64(),
		UserID:     o.UserID,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}
