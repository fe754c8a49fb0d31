package repository

import (
	"context"
	"errors"

	"sitehub/internal/models"

	"gorm.io/gorm"
)

// CustomerRepository defines persistence operations for storefront customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uint) error
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository returns a new CustomerRepository implementation.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	err := r.db.WithContext(ctx).Omit("User").Create(customer).Error
	return translateWriteError(err, "Customer", "user")
}

func (r *customerRepository) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Preload("User").First(&customer, id).Error; err != nil {
		return nil, translateReadError(err, models.NewNotFoundError("Customer", id))
	}
	return &customer, nil
}

// GetByUserID returns nil, nil when the user has no storefront identity.
func (r *customerRepository) GetByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{ID: customer.ID}).
		Select("full_name", "address").
		Updates(customer)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Customer", customer.ID)
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Customer{}, id)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Customer", id)
	}
	return nil
}
