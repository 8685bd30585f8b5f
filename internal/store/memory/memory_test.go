package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.Catalog().CreateItem(ctx, &models.Item{Code: "A", Name: "Apple", Active: true}))
		require.NoError(t, tx.Stock().UpdateQuantity(ctx, 1, 1, 10))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		items, err := tx.Catalog().ListItems(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)

		st, err := tx.Stock().FindStock(ctx, 1, 1)
		require.NoError(t, err)
		assert.Nil(t, st)
		return nil
	})
}

func TestNextOrderNoIsPerDay(t *testing.T) {
	ctx := context.Background()
	s := New()

	var nos []string
	_ = s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, day := range []string{"2024-03-01", "2024-03-01", "2024-03-02"} {
			d, _ := timeDate(day)
			no, err := tx.Orders().NextOrderNo(ctx, d)
			require.NoError(t, err)
			nos = append(nos, no)
		}
		return nil
	})
	assert.Equal(t, []string{"20240301-0001", "20240301-0002", "20240302-0001"}, nos)
}

func TestLedgerEntriesOrderByDateThenID(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		d1, _ := timeDate("2024-03-01")
		d2, _ := timeDate("2024-03-05")
		late := &models.CustomerLedgerEntry{CustomerID: 1, EntryDate: d2, EntryType: models.LedgerEntryTypeDeposit, Amount: 10}
		early := &models.CustomerLedgerEntry{CustomerID: 1, EntryDate: d1, EntryType: models.LedgerEntryTypeDeposit, Amount: 20}
		require.NoError(t, tx.Ledger().Insert(ctx, late))
		require.NoError(t, tx.Ledger().Insert(ctx, early))

		from, err := tx.Ledger().EntriesFrom(ctx, 1, d1, early.ID)
		require.NoError(t, err)
		require.Len(t, from, 2)
		assert.Equal(t, early.ID, from[0].ID)
		assert.Equal(t, late.ID, from[1].ID)

		prev, err := tx.Ledger().EntryBefore(ctx, 1, d2, late.ID)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, early.ID, prev.ID)

		none, err := tx.Ledger().EntryBefore(ctx, 1, d1, early.ID)
		require.NoError(t, err)
		assert.Nil(t, none)
		return nil
	})
}
