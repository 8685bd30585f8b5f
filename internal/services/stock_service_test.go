package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
)

func TestAdjustStockRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)

	tests := []struct {
		name  string
		delta int
		typ   models.MovementType
		code  string
	}{
		{"zero delta", 0, models.MovementTypeAdjustment, apperr.CodeValidationError},
		{"IN with negative delta", -1, models.MovementTypeIn, apperr.CodeValidationError},
		{"OUT with positive delta", 1, models.MovementTypeOut, apperr.CodeValidationError},
		{"OUT below zero", -11, models.MovementTypeOut, apperr.CodeInsufficientStock},
		{"ADJUSTMENT below zero", -11, models.MovementTypeAdjustment, apperr.CodeInsufficientStock},
		{"unknown type", 1, models.MovementType("TRANSFER"), apperr.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
				WarehouseID:  f.warehouse.ID,
				ItemID:       f.item.ID,
				Delta:        tt.delta,
				MovementType: tt.typ,
			}, testUserID)
			requireCode(t, err, tt.code)
			assert.Equal(t, 10, f.quantity(t, f.warehouse.ID, f.item.ID))
		})
	}
}

func TestAdjustStockWritesMovement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m, err := f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID:  f.warehouse.ID,
		ItemID:       f.item.ID,
		Delta:        4,
		MovementType: models.MovementTypeIn,
		UnitPrice:    250,
		Memo:         "opening count",
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), m.Amount)
	assert.Equal(t, models.StockRefManual, m.ReferenceType)
	assert.Equal(t, testUserID, m.CreatedByUserID)

	m, err = f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID:  f.warehouse.ID,
		ItemID:       f.item.ID,
		Delta:        -3,
		MovementType: models.MovementTypeAdjustment,
		UnitPrice:    250,
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), m.Amount)
	assert.Equal(t, 1, f.quantity(t, f.warehouse.ID, f.item.ID))
}

func TestAdjustStockUnknownKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID: 999, ItemID: f.item.ID, Delta: 1, MovementType: models.MovementTypeIn,
	}, testUserID)
	requireCode(t, err, apperr.CodeNotFound)

	_, err = f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID: f.warehouse.ID, ItemID: 999, Delta: 1, MovementType: models.MovementTypeIn,
	}, testUserID)
	requireCode(t, err, apperr.CodeNotFound)
}

func TestCurrentQuantityOfUntouchedKey(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.quantity(t, f.secondWH.ID, f.freeItem.ID))

	row, err := f.stock.GetStock(context.Background(), f.secondWH.ID, f.freeItem.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, row.CurrentQuantity)
}

// Random adjustments, accepted or refused, never break the counter/log equality.
func TestStockConservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))
	types := []models.MovementType{models.MovementTypeIn, models.MovementTypeOut, models.MovementTypeAdjustment}

	for i := 0; i < 300; i++ {
		typ := types[rng.Intn(len(types))]
		delta := rng.Intn(20) + 1
		if typ == models.MovementTypeOut || (typ == models.MovementTypeAdjustment && rng.Intn(2) == 0) {
			delta = -delta
		}
		wh := f.warehouse.ID
		if rng.Intn(2) == 0 {
			wh = f.secondWH.ID
		}
		_, err := f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
			WarehouseID: wh, ItemID: f.item.ID, Delta: delta, MovementType: typ,
		}, testUserID)
		if err != nil {
			requireCode(t, err, apperr.CodeInsufficientStock)
		}

		f.requireConserved(t, f.warehouse.ID, f.item.ID)
		f.requireConserved(t, f.secondWH.ID, f.item.ID)
		assert.GreaterOrEqual(t, f.quantity(t, wh, f.item.ID), 0)
	}
}

func TestSetSafeQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 5)

	row, err := f.stock.SetSafeQuantity(ctx, f.warehouse.ID, f.item.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, row.SafeQuantity)
	assert.Equal(t, 5, row.CurrentQuantity)
	assert.True(t, row.BelowSafe())

	_, err = f.stock.SetSafeQuantity(ctx, f.warehouse.ID, f.item.ID, -1)
	requireCode(t, err, apperr.CodeValidationError)
}

func TestListMovementsFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 5)
	f.receive(t, f.secondWH.ID, f.item.ID, 5)
	f.order(t, 2, 1000)

	out, err := f.stock.ListMovements(ctx, models.MovementFilter{WarehouseID: f.warehouse.ID})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.MovementTypeIn, out[0].MovementType)
	assert.Equal(t, models.MovementTypeOut, out[1].MovementType)
	assert.Equal(t, -2, out[1].Quantity)

	out, err = f.stock.ListMovements(ctx, models.MovementFilter{ReferenceType: models.StockRefOrder})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
