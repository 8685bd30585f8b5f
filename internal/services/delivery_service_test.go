package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
)

func TestDeliveryTransitionTable(t *testing.T) {
	all := []models.DeliveryStatus{
		models.DeliveryStatusRequested,
		models.DeliveryStatusDelivering,
		models.DeliveryStatusCompleted,
	}
	allowed := map[[2]models.DeliveryStatus]bool{
		{models.DeliveryStatusRequested, models.DeliveryStatusDelivering}: true,
		{models.DeliveryStatusRequested, models.DeliveryStatusCompleted}:  true,
		{models.DeliveryStatusDelivering, models.DeliveryStatusRequested}: true,
		{models.DeliveryStatusDelivering, models.DeliveryStatusCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]models.DeliveryStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

// Scenario: start([A, B]) with A REQUESTED and B COMPLETED gives a mixed result.
func TestStartBatchReportsPerOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)

	a := f.order(t, 1, 100)
	b := f.completedOrder(t, 1, 100)

	res := f.delivery.Start(ctx, []int{a.ID, b.ID, 999}, testUserID)
	require.Len(t, res.Results, 3)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)

	assert.True(t, res.Results[0].Success)
	assert.Equal(t, models.DeliveryStatusDelivering, res.Results[0].Status)

	assert.False(t, res.Results[1].Success)
	assert.Equal(t, apperr.CodeInvalidTransition, res.Results[1].Code)

	assert.Equal(t, apperr.CodeNotFound, res.Results[2].Code)

	got, err := f.orders.GetOrder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusCompleted, got.DeliveryStatus)
}

func TestCancelReturnsToRequested(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)
	a := f.order(t, 2, 100)

	res := f.delivery.Cancel(ctx, []int{a.ID}, testUserID)
	assert.Equal(t, apperr.CodeInvalidTransition, res.Results[0].Code)

	f.delivery.Start(ctx, []int{a.ID}, testUserID)
	res = f.delivery.Cancel(ctx, []int{a.ID}, testUserID)
	require.True(t, res.Results[0].Success)
	assert.Equal(t, models.DeliveryStatusRequested, res.Results[0].Status)

	// status changes never move stock
	assert.Equal(t, 8, f.quantity(t, f.warehouse.ID, f.item.ID))
}

func TestCompletePostsSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)
	a := f.order(t, 5, 1000)

	res := f.delivery.Complete(ctx, []int{a.ID}, testUserID)
	require.True(t, res.Results[0].Success)

	got, err := f.orders.GetOrder(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)

	bal, err := f.ledger.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, -got.TotalAmount, bal.Balance)
	assert.Equal(t, int64(-5500), bal.Balance)

	res = f.delivery.Complete(ctx, []int{a.ID}, testUserID)
	assert.Equal(t, apperr.CodeInvalidTransition, res.Results[0].Code)

	bal, err = f.ledger.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bal.EntryCount)
}

func TestCompleteZeroValueOrderSkipsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)
	a := f.order(t, 1, 0)

	res := f.delivery.Complete(ctx, []int{a.ID}, testUserID)
	require.True(t, res.Results[0].Success)

	bal, err := f.ledger.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.EntryCount)
}
