package repo

import (
	"context"

	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id ASC")
}

func withUserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *GormRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&items).Error
}

func (r *GormRepo) ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("total_price", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetOrder loads an order owned by userID with its items and the owner projection.
// A foreign owner yields gorm.ErrRecordNotFound exactly like an unknown id.
func (r *GormRepo) GetOrder(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", withItems).
		Preload("User", withUserSummary).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", withItems).
		Preload("User", withUserSummary).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindOwnedOrderForUpdate returns the bare order row and locks it for the rest of the transaction.
func (r *GormRepo) FindOwnedOrderForUpdate(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) UpdateOrderFields(ctx context.Context, order *models.Order, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).Model(order).Updates(fields).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).First(order, order.ID).Error
}

func (r *GormRepo) DeleteOrderItems(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
}

func (r *GormRepo) DeleteOrder(ctx context.Context, orderID uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Order{}, orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
