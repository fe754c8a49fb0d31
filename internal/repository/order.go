package repository

import (
	"context"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// OrderRepository defines persistence operations for storefront orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]models.Order, error)
	Delete(ctx context.Context, id uint) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository returns a new OrderRepository implementation.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Omit("Customer").Create(order).Error
	return translateWriteError(err, "Order", "id")
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundError("Order", id))
	}
	return &order, nil
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&total).Error
	if err != nil {
		return 0, storeFailure(err)
	}
	return total, nil
}

// ListByCustomer returns a customer's orders newest first.
func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, storeFailure(err)
	}
	return orders, nil
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Order", id)
	}
	return nil
}
