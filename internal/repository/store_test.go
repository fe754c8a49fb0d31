package repository

import (
	"context"
	"testing"
	"time"

	"sitehub/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	products := []*models.Product{
		{Title: "Laptop", Category: "electronics", MarkedPrice: decimal.RequireFromString("1200.00"), SellingPrice: decimal.RequireFromString("999.99"), CreatedAt: base},
		{Title: "Phone", Category: "electronics", MarkedPrice: decimal.NewFromInt(800), SellingPrice: decimal.NewFromInt(750), CreatedAt: base.Add(time.Hour)},
		{Title: "Novel", Category: "books", MarkedPrice: decimal.NewFromInt(20), SellingPrice: decimal.NewFromInt(15), CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, p := range products {
		require.NoError(t, repo.Create(ctx, p))
	}

	t.Run("slug conflict", func(t *testing.T) {
		err := repo.Create(ctx, &models.Product{Title: "Laptop", MarkedPrice: decimal.NewFromInt(1), SellingPrice: decimal.NewFromInt(1)})
		assert.True(t, models.HasCode(err, models.CodeConflict))
	})

	t.Run("list newest first with filter", func(t *testing.T) {
		all, err := repo.List(ctx, "", 10, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Novel", all[0].Title)

		electronics, err := repo.List(ctx, "electronics", 10, 0)
		require.NoError(t, err)
		require.Len(t, electronics, 2)
		assert.Equal(t, "Phone", electronics[0].Title)

		count, err := repo.Count(ctx, "electronics")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("categories are distinct", func(t *testing.T) {
		cats, err := repo.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"books", "electronics"}, cats)
	})

	t.Run("prices round trip", func(t *testing.T) {
		got, err := repo.GetBySlug(ctx, "laptop")
		require.NoError(t, err)
		assert.True(t, got.SellingPrice.Equal(decimal.RequireFromString("999.99")))
		assert.True(t, got.Discount().Equal(decimal.RequireFromString("200.01")))
	})

	t.Run("update keeps slug", func(t *testing.T) {
		p := products[1]
		p.Title = "Smartphone"
		p.SellingPrice = decimal.NewFromInt(700)
		require.NoError(t, repo.Update(ctx, p))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Smartphone", got.Title)
		assert.Equal(t, "phone", got.Slug)
		assert.True(t, got.SellingPrice.Equal(decimal.NewFromInt(700)))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, products[2].ID))
		assert.True(t, models.HasCode(repo.Delete(ctx, products[2].ID), models.CodeNotFound))
	})
}

func TestCustomerAndOrderRepositories(t *testing.T) {
	db := setupTestDB(t)
	customers := NewCustomerRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "carol")

	none, err := customers.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	customer := &models.Customer{UserID: user.ID, FullName: "Carol C", Address: "2 Elm"}
	require.NoError(t, customers.Create(ctx, customer))

	dup := customers.Create(ctx, &models.Customer{UserID: user.ID, FullName: "Again"})
	assert.True(t, models.HasCode(dup, models.CodeConflict))

	got, err := customers.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "carol", got.User.Username)

	customer.Address = "3 Oak"
	require.NoError(t, customers.Update(ctx, customer))
	got, err = customers.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "3 Oak", got.Address)

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, orders.Create(ctx, &models.Order{
			CustomerID:      customer.ID,
			OrderedBy:       "Carol C",
			ShippingAddress: "3 Oak",
			Mobile:          "5550000",
			PaymentMethod:   models.PaymentOnline,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	count, err := orders.CountByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := orders.ListByCustomer(ctx, customer.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	_, err = orders.GetByID(ctx, 9999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, customers.Delete(ctx, customer.ID))
	count, err = orders.CountByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestContactRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"Ann", "Ben"} {
		require.NoError(t, repo.Create(ctx, &models.ContactSubmission{
			Name: name, Email: name + "@example.com", Message: "hi", SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ben", list[0].Name)
}

func TestProfileRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "dana")
	_, err := repo.GetByUserID(ctx, user.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, repo.Create(ctx, &models.Profile{UserID: user.ID}))
	assert.True(t, models.HasCode(repo.Create(ctx, &models.Profile{UserID: user.ID}), models.CodeConflict))

	require.NoError(t, repo.UpdateBio(ctx, user.ID, "gardener"))
	got, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "gardener", got.Bio)
}

func TestDeletingUserCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createUser(t, db, "erin")
	require.NoError(t, NewProfileRepository(db).Create(ctx, &models.Profile{UserID: user.ID}))
	customer := &models.Customer{UserID: user.ID, FullName: "Erin Example"}
	require.NoError(t, NewCustomerRepository(db).Create(ctx, customer))
	require.NoError(t, NewOrderRepository(db).Create(ctx, &models.Order{
		CustomerID: customer.ID, OrderedBy: "Erin", ShippingAddress: "1 Main St", Mobile: "5550100",
	}))

	require.NoError(t, NewUserRepository(db).Delete(ctx, user.ID))

	for _, m := range []any{&models.Profile{}, &models.Customer{}, &models.Order{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T rows left after user delete", m)
	}
}
