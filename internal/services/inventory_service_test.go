package services

import (
	"context"
	"testing"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementIsGuarded(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()
	tx := memTx{f.db}

	err := tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		return f.inventory.Decrement(ctx, q, productSerum, 5)
	})
	require.NoError(t, err)
	assert.Zero(t, f.db.stock(productSerum))

	err = tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		return f.inventory.Decrement(ctx, q, productSerum, 1)
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Zero(t, f.db.stock(productSerum))
}

func TestDecrementRejectsNonPositiveQuantity(t *testing.T) {
	f := newSalesFixture(t)
	for _, qty := range []int{0, -3} {
		err := f.inventory.Decrement(context.Background(), nil, productSerum, qty)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Equal(t, 5, f.db.stock(productSerum))
}

func TestDecrementOfMissingProductIsAShortfall(t *testing.T) {
	f := newSalesFixture(t)
	err := f.inventory.Decrement(context.Background(), nil, 777, 1)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
}

func TestRestock(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()

	movement, warnings, err := f.inventory.Restock(ctx, intPtr(3), productCream, &models.RestockRequest{Quantity: 10, Note: " NF 1234 "})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 11, f.db.stock(productCream))
	assert.Equal(t, models.StockRestock, movement.Reason)
	assert.Equal(t, 10, movement.Quantity)
	assert.Equal(t, "NF 1234", movement.Note)
	assert.Equal(t, []string{models.ActionStockEntry}, f.db.auditActions())

	_, _, err = f.inventory.Restock(ctx, nil, productCream, &models.RestockRequest{Quantity: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = f.inventory.Restock(ctx, nil, productRetired, &models.RestockRequest{Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = f.inventory.Restock(ctx, nil, 777, &models.RestockRequest{Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductListings(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()

	products, err := f.inventory.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	low, err := f.inventory.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, productCream, low[0].ID)

	_, err = f.invoices.Post(ctx, nil, sale(productLine(productSerum, 3, "89.90")))
	require.NoError(t, err)

	low, err = f.inventory.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Len(t, low, 2)

	movements, err := f.inventory.ListMovements(ctx, productSerum, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -3, movements[0].Quantity)
	require.NotNil(t, movements[0].InvoiceID)
}
