package repository

import (
	"context"
	"testing"
	"time"

	"sitehub/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var longAgo = time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)

// backdate moves both timestamps of a row into the past without running hooks.
func backdate(t *testing.T, db *gorm.DB, model any, id uint) {
	t.Helper()
	err := db.Model(model).Where("id = ?", id).
		UpdateColumns(map[string]any{"created_at": longAgo, "updated_at": longAgo}).Error
	require.NoError(t, err)
}

func assertRestamped(t *testing.T, createdAt, updatedAt time.Time) {
	t.Helper()
	assert.True(t, createdAt.Equal(longAgo), "created_at moved to %s", createdAt)
	assert.True(t, updatedAt.After(longAgo), "updated_at stuck at %s", updatedAt)
}

func TestUpdatesKeepCreatedAtAndRefreshUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("blog", func(t *testing.T) {
		repo := NewBlogRepository(db)
		blog := &models.Blog{Title: "Stamped"}
		require.NoError(t, repo.Create(ctx, blog))
		assert.False(t, blog.CreatedAt.IsZero())
		assert.False(t, blog.UpdatedAt.IsZero())
		backdate(t, db, &models.Blog{}, blog.ID)

		blog.Title = "Stamped again"
		blog.CreatedAt = time.Now()
		require.NoError(t, repo.Update(ctx, blog))

		got, err := repo.GetByID(ctx, blog.ID)
		require.NoError(t, err)
		assertRestamped(t, got.CreatedAt, got.UpdatedAt)
	})

	t.Run("view counter leaves updated_at alone", func(t *testing.T) {
		repo := NewBlogRepository(db)
		blog := &models.Blog{Title: "Quiet"}
		require.NoError(t, repo.Create(ctx, blog))
		backdate(t, db, &models.Blog{}, blog.ID)

		require.NoError(t, repo.IncrementViews(ctx, blog.ID))
		got, err := repo.GetByID(ctx, blog.ID)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.Equal(longAgo))
	})

	t.Run("product", func(t *testing.T) {
		repo := NewProductRepository(db)
		product := &models.Product{Title: "Lamp", MarkedPrice: decimal.NewFromInt(30), SellingPrice: decimal.NewFromInt(25)}
		require.NoError(t, repo.Create(ctx, product))
		backdate(t, db, &models.Product{}, product.ID)

		product.SellingPrice = decimal.NewFromInt(20)
		require.NoError(t, repo.Update(ctx, product))

		got, err := repo.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assertRestamped(t, got.CreatedAt, got.UpdatedAt)
	})

	t.Run("user", func(t *testing.T) {
		repo := NewUserRepository(db)
		user := &models.User{Username: "stamp", Email: "stamp@example.com", Password: "x"}
		require.NoError(t, repo.Create(ctx, user))
		backdate(t, db, &models.User{}, user.ID)

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		loaded.Email = "stamp2@example.com"
		loaded.CreatedAt = time.Now()
		require.NoError(t, repo.Update(ctx, loaded))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "stamp2@example.com", got.Email)
		assertRestamped(t, got.CreatedAt, got.UpdatedAt)
	})

	t.Run("order is stamped once at creation", func(t *testing.T) {
		owner := createUser(t, db, "orderer")
		customer := &models.Customer{UserID: owner.ID, FullName: "Orderer"}
		require.NoError(t, NewCustomerRepository(db).Create(ctx, customer))

		before := time.Now().Add(-time.Second)
		order := &models.Order{
			CustomerID: customer.ID, OrderedBy: "Orderer", ShippingAddress: "1 Road",
			Mobile: "5550101", PaymentMethod: models.PaymentOnline,
		}
		orders := NewOrderRepository(db)
		require.NoError(t, orders.Create(ctx, order))

		got, err := orders.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, got.CreatedAt.After(before))
		assert.True(t, got.UpdatedAt.After(before))
	})
}
