package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports membership in the enumeration only; any status may follow any other.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	Name         string    `gorm:"not null"                   json:"name"`
	Role         string    `gorm:"not null;default:user"      json:"role"`
	CreatedAt    time.Time `                                  json:"createdAt"`
	UpdatedAt    time.Time `                                  json:"updatedAt"`
	Orders       []Order   `gorm:"foreignKey:UserID"          json:"-"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string          `gorm:"not null"                     json:"name"`
	Description string          `gorm:"not null;default:''"          json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	Stock       uint            `gorm:"not null;default:0"           json:"stock"`
	CreatedAt   time.Time       `                                    json:"createdAt"`
	UpdatedAt   time.Time       `                                    json:"updatedAt"`
}

type Order struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"                  json:"id"`
	Status     OrderStatus     `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"totalPrice"`
	UserID     uint            `gorm:"index;not null"                            json:"userId"`
	User       User            `gorm:"foreignKey:UserID"                         json:"-"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID"                        json:"-"`
	CreatedAt  time.Time       `                                                 json:"createdAt"`
	UpdatedAt  time.Time       `                                                 json:"updatedAt"`
}

// OrderItem keeps ProductID as a plain column: the product may be deleted later
// while the item and its price snapshot stay valid.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderID   uint            `gorm:"index;not null"               json:"orderId"`
	ProductID uint            `gorm:"index;not null"               json:"productId"`
	Quantity  uint            `gorm:"not null;check:quantity > 0"  json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	CreatedAt time.Time       `                                    json:"createdAt"`
}

type ProductSummary struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func All() []any {
	return []any{&User{}, &Product{}, &Order{}, &OrderItem{}}
}
