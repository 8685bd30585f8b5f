package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
)

func (f *fixture) post(t *testing.T, typ models.LedgerEntryType, amount int64, on *time.Time, refID int) *models.CustomerLedgerEntry {
	t.Helper()
	ref := refID
	e, err := f.ledger.AppendEntry(context.Background(), &models.CreateLedgerEntryRequest{
		CustomerID:  f.customer.ID,
		EntryType:   typ,
		Amount:      amount,
		EntryDate:   on,
		ReferenceID: &ref,
	}, testUserID)
	require.NoError(t, err)
	return e
}

func (f *fixture) requireChain(t *testing.T) []models.CustomerLedgerEntry {
	t.Helper()
	entries, err := f.ledger.ListEntries(context.Background(), models.LedgerFilter{CustomerID: f.customer.ID})
	require.NoError(t, err)

	var running int64
	for i, e := range entries {
		running += e.SignedAmount
		require.Equal(t, running, e.BalanceAfter, "entry %d (id %d) breaks the running sum", i, e.ID)
		if i > 0 {
			require.True(t, entries[i-1].Before(&e), "entries out of (date, id) order")
		}
	}

	v, err := f.ledger.VerifyChain(context.Background(), f.customer.ID)
	require.NoError(t, err)
	require.True(t, v.Consistent)
	return entries
}

func TestAppendEntrySigns(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, int64(1000), f.post(t, models.LedgerEntryTypeDeposit, 1000, nil, 1).BalanceAfter)
	assert.Equal(t, int64(700), f.post(t, models.LedgerEntryTypeWithdrawal, 300, nil, 2).BalanceAfter)
	assert.Equal(t, int64(200), f.post(t, models.LedgerEntryTypeSale, 500, nil, 3).BalanceAfter)
	assert.Equal(t, int64(150), f.post(t, models.LedgerEntryTypeAdjustment, -50, nil, 4).BalanceAfter)
	assert.Equal(t, int64(250), f.post(t, models.LedgerEntryTypeReturnDeposit, 100, nil, 5).BalanceAfter)

	bal, err := f.ledger.CurrentBalance(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), bal.Balance)
	assert.Equal(t, 5, bal.EntryCount)
	f.requireChain(t)
}

func TestAppendEntryValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		typ    models.LedgerEntryType
		amount int64
		code   string
	}{
		{"zero deposit", models.LedgerEntryTypeDeposit, 0, apperr.CodeValidationError},
		{"negative withdrawal", models.LedgerEntryTypeWithdrawal, -10, apperr.CodeValidationError},
		{"zero adjustment", models.LedgerEntryTypeAdjustment, 0, apperr.CodeValidationError},
		{"unknown type", models.LedgerEntryType("BONUS"), 10, apperr.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.AppendEntry(ctx, &models.CreateLedgerEntryRequest{
				CustomerID: f.customer.ID, EntryType: tt.typ, Amount: tt.amount,
			}, testUserID)
			requireCode(t, err, tt.code)
		})
	}

	_, err := f.ledger.AppendEntry(ctx, &models.CreateLedgerEntryRequest{
		CustomerID: 999, EntryType: models.LedgerEntryTypeDeposit, Amount: 10,
	}, testUserID)
	requireCode(t, err, apperr.CodeNotFound)
}

func TestBackDatedEntryRebalancesLaterEntries(t *testing.T) {
	f := newFixture(t)

	f.post(t, models.LedgerEntryTypeDeposit, 1000, date(t, 2024, 3, 1), 1)
	f.post(t, models.LedgerEntryTypeSale, 400, date(t, 2024, 3, 10), 2)
	f.post(t, models.LedgerEntryTypeDeposit, 50, date(t, 2024, 3, 20), 3)

	back := f.post(t, models.LedgerEntryTypeWithdrawal, 100, date(t, 2024, 3, 5), 4)
	assert.Equal(t, int64(900), back.BalanceAfter)

	entries := f.requireChain(t)
	require.Len(t, entries, 4)
	assert.Equal(t, back.ID, entries[1].ID)
	assert.Equal(t, int64(500), entries[2].BalanceAfter)
	assert.Equal(t, int64(550), entries[3].BalanceAfter)
}

func TestSameDayEntriesOrderByID(t *testing.T) {
	f := newFixture(t)
	d := date(t, 2024, 4, 2)

	first := f.post(t, models.LedgerEntryTypeDeposit, 100, d, 1)
	second := f.post(t, models.LedgerEntryTypeDeposit, 200, d, 2)
	assert.Equal(t, int64(100), first.BalanceAfter)
	assert.Equal(t, int64(300), second.BalanceAfter)
	f.requireChain(t)
}

func TestReverseEntryRestoresRunningSum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.post(t, models.LedgerEntryTypeDeposit, 1000, date(t, 2024, 3, 1), 1)
	f.post(t, models.LedgerEntryTypeAdjustment, 250, date(t, 2024, 3, 2), 2)
	f.post(t, models.LedgerEntryTypeWithdrawal, 300, date(t, 2024, 3, 3), 3)
	f.post(t, models.LedgerEntryTypeDeposit, 10, date(t, 2024, 3, 4), 4)

	removed, err := f.ledger.ReverseEntry(ctx, models.LedgerRefManual, 2)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerEntryTypeAdjustment, removed.EntryType)

	entries := f.requireChain(t)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(710), entries[2].BalanceAfter)

	bal, err := f.ledger.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(710), bal.Balance)

	_, err = f.ledger.ReverseEntry(ctx, models.LedgerRefManual, 2)
	requireCode(t, err, apperr.CodeNotFound)
}

func TestReverseEntryRefusesOwnedTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)
	order := f.completedOrder(t, 2, 1000)

	_, err := f.ledger.ReverseEntry(ctx, models.LedgerRefOrder, order.ID)
	requireCode(t, err, apperr.CodeInvalidState)
	f.requireChain(t)
}

func TestReverseEntryPicksReversibleEntrySharingReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.receive(t, f.warehouse.ID, f.item.ID, 10)
	order := f.order(t, 2, 1000)

	ref := order.ID
	deposit, err := f.ledger.AppendEntry(ctx, &models.CreateLedgerEntryRequest{
		CustomerID:    f.customer.ID,
		EntryType:     models.LedgerEntryTypeDeposit,
		Amount:        500,
		ReferenceType: models.LedgerRefOrder,
		ReferenceID:   &ref,
	}, testUserID)
	require.NoError(t, err)

	res := f.delivery.Complete(ctx, []int{order.ID}, testUserID)
	require.Equal(t, 1, res.Succeeded)

	removed, err := f.ledger.ReverseEntry(ctx, models.LedgerRefOrder, order.ID)
	require.NoError(t, err)
	assert.Equal(t, deposit.ID, removed.ID)

	entries := f.requireChain(t)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerEntryTypeSale, entries[0].EntryType)

	_, err = f.ledger.ReverseEntry(ctx, models.LedgerRefOrder, order.ID)
	requireCode(t, err, apperr.CodeInvalidState)
}

func TestCurrentBalanceWithoutEntries(t *testing.T) {
	f := newFixture(t)
	bal, err := f.ledger.CurrentBalance(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.Balance)
	assert.Equal(t, 0, bal.EntryCount)
}

// recordingStore notes the ledger lock and read calls made by a service
type recordingStore struct {
	inner store.Store
	calls *[]string
}

func (s recordingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.inner.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, recordingTx{Tx: tx, calls: s.calls})
	})
}

type recordingTx struct {
	store.Tx
	calls *[]string
}

func (t recordingTx) Ledger() store.LedgerRepository {
	return recordingLedger{LedgerRepository: t.Tx.Ledger(), calls: t.calls}
}

type recordingLedger struct {
	store.LedgerRepository
	calls *[]string
}

func (l recordingLedger) LockCustomer(ctx context.Context, customerID int) error {
	*l.calls = append(*l.calls, "LockCustomer")
	return l.LedgerRepository.LockCustomer(ctx, customerID)
}

func (l recordingLedger) LastEntry(ctx context.Context, customerID int) (*models.CustomerLedgerEntry, error) {
	*l.calls = append(*l.calls, "LastEntry")
	return l.LedgerRepository.LastEntry(ctx, customerID)
}

// A balance that may be cached is read under the customer lock, so a writer
// committing in between cannot leave an older figure behind it.
func TestCurrentBalanceReadsUnderCustomerLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, models.LedgerEntryTypeDeposit, 400, nil, 1)

	var calls []string
	svc := NewLedgerService(recordingStore{inner: f.store, calls: &calls})

	bal, err := svc.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), bal.Balance)
	assert.Equal(t, []string{"LockCustomer", "LastEntry"}, calls)

	calls = nil
	_, err = svc.AppendEntry(ctx, &models.CreateLedgerEntryRequest{
		CustomerID: f.customer.ID,
		EntryType:  models.LedgerEntryTypeWithdrawal,
		Amount:     150,
	}, testUserID)
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, "LockCustomer", calls[0])

	bal, err = svc.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), bal.Balance)
}

func TestListEntriesFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, models.LedgerEntryTypeDeposit, 100, date(t, 2024, 1, 15), 1)
	f.post(t, models.LedgerEntryTypeWithdrawal, 10, date(t, 2024, 2, 15), 2)
	f.post(t, models.LedgerEntryTypeDeposit, 100, date(t, 2024, 3, 15), 3)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	entries, err := f.ledger.ListEntries(ctx, models.LedgerFilter{CustomerID: f.customer.ID, StartDate: &from})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = f.ledger.ListEntries(ctx, models.LedgerFilter{CustomerID: f.customer.ID, EntryType: models.LedgerEntryTypeDeposit})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.ledger.ListEntries(ctx, models.LedgerFilter{})
	requireCode(t, err, apperr.CodeValidationError)
}
