package services

import (
	"context"
	"fmt"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/cache"
	"wholesale-backend/internal/metrics"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/timeutil"
)

type LedgerService struct {
	Store store.Store
}

func NewLedgerService(s store.Store) *LedgerService {
	return &LedgerService{Store: s}
}

func validateLedgerAmount(t models.LedgerEntryType, amount int64) error {
	if !t.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown ledger entry type %q", t))
	}
	if t == models.LedgerEntryTypeAdjustment {
		if amount == 0 {
			return apperr.Validation("adjustment amount must not be zero")
		}
		return nil
	}
	if amount <= 0 {
		return apperr.Validation(fmt.Sprintf("%s amount must be positive", t))
	}
	return nil
}

// appendLedgerEntry inserts e and rewrites the running balance from e onward.
// EntryDate is normalized to the start of its business day.
func appendLedgerEntry(ctx context.Context, tx store.Tx, e *models.CustomerLedgerEntry) error {
	if err := validateLedgerAmount(e.EntryType, e.Amount); err != nil {
		return err
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = timeutil.Now()
	}
	e.EntryDate = timeutil.StartOfDay(e.EntryDate)
	e.SignedAmount = e.EntryType.SignedAmount(e.Amount)

	if err := lockLedger(ctx, tx, e.CustomerID); err != nil {
		return err
	}
	if err := tx.Ledger().Insert(ctx, e); err != nil {
		return err
	}

	balance, err := rebalanceFrom(ctx, tx, e.CustomerID, e.EntryDate, e.ID)
	if err != nil {
		return err
	}
	e.BalanceAfter = balance[e.ID]

	metrics.LedgerEntriesTotal.WithLabelValues(string(e.EntryType)).Inc()
	return nil
}

// lockLedger takes the customer's ledger lock and drops the cached balance.
// Readers only fill the cache while holding the same lock, so no balance read
// before this write can be cached after it.
func lockLedger(ctx context.Context, tx store.Tx, customerID int) error {
	if err := tx.Ledger().LockCustomer(ctx, customerID); err != nil {
		return err
	}
	cache.InvalidateBalance(ctx, customerID)
	return nil
}

// rebalanceFrom recomputes balance_after for every entry ordered at or after
// (date, id), seeding from the entry just before it. The customer lock must be held.
func rebalanceFrom(ctx context.Context, tx store.Tx, customerID int, date time.Time, id int) (map[int]int64, error) {
	prev, err := tx.Ledger().EntryBefore(ctx, customerID, date, id)
	if err != nil {
		return nil, err
	}
	var running int64
	if prev != nil {
		running = prev.BalanceAfter
	}

	suffix, err := tx.Ledger().EntriesFrom(ctx, customerID, date, id)
	if err != nil {
		return nil, err
	}
	balances := make(map[int]int64, len(suffix))
	for _, e := range suffix {
		running += e.SignedAmount
		balances[e.ID] = running
		if e.BalanceAfter == running {
			continue
		}
		if err := tx.Ledger().UpdateBalanceAfter(ctx, e.ID, running); err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// AppendEntry posts a ledger entry for a customer
func (s *LedgerService) AppendEntry(ctx context.Context, req *models.CreateLedgerEntryRequest, userID int) (*models.CustomerLedgerEntry, error) {
	if err := validateLedgerAmount(req.EntryType, req.Amount); err != nil {
		return nil, err
	}

	entry := &models.CustomerLedgerEntry{
		CustomerID:      req.CustomerID,
		EntryType:       req.EntryType,
		Amount:          req.Amount,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		Memo:            req.Memo,
		CreatedByUserID: userID,
	}
	if entry.ReferenceType == "" {
		entry.ReferenceType = models.LedgerRefManual
	}
	if req.EntryDate != nil {
		entry.EntryDate = *req.EntryDate
	}

	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, req.CustomerID); err != nil {
			return err
		}
		return appendLedgerEntry(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateBalance(ctx, entry.CustomerID)
	return entry, nil
}

// CurrentBalance returns the balance after the customer's last entry, 0 without entries
func (s *LedgerService) CurrentBalance(ctx context.Context, customerID int) (*models.LedgerBalance, error) {
	out := &models.LedgerBalance{CustomerID: customerID}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, customerID); err != nil {
			return err
		}
		var err error
		out.EntryCount, err = tx.Ledger().CountEntries(ctx, customerID)
		if err != nil {
			return err
		}
		if cached, ok := cache.GetCachedBalance(ctx, customerID); ok {
			out.Balance = cached
			return nil
		}
		// waits out an in-flight writer before the cache is filled
		if err := tx.Ledger().LockCustomer(ctx, customerID); err != nil {
			return err
		}
		last, err := tx.Ledger().LastEntry(ctx, customerID)
		if err != nil {
			return err
		}
		if last != nil {
			out.Balance = last.BalanceAfter
		}
		cache.CacheBalance(ctx, customerID, out.Balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReverseEntry removes the operator-posted entry carrying the reference and
// rewrites the balances after it
func (s *LedgerService) ReverseEntry(ctx context.Context, referenceType string, referenceID int) (*models.CustomerLedgerEntry, error) {
	if referenceType == "" {
		return nil, apperr.Validation("reference_type is required")
	}

	var removed *models.CustomerLedgerEntry
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		entry, err := tx.Ledger().FindByReference(ctx, referenceType, referenceID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperr.NotFound("ledger entry", fmt.Sprintf("%s:%d", referenceType, referenceID))
		}
		if err := lockLedger(ctx, tx, entry.CustomerID); err != nil {
			return err
		}
		// re-read under the customer lock
		entry, err = tx.Ledger().FindByReference(ctx, referenceType, referenceID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperr.NotFound("ledger entry", fmt.Sprintf("%s:%d", referenceType, referenceID))
		}
		if !entry.EntryType.Reversible() {
			return apperr.InvalidState(fmt.Sprintf("%s entries cannot be reversed", entry.EntryType))
		}

		if err := tx.Ledger().Delete(ctx, entry.ID); err != nil {
			return err
		}
		if _, err := rebalanceFrom(ctx, tx, entry.CustomerID, entry.EntryDate, entry.ID); err != nil {
			return err
		}
		removed = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateBalance(ctx, removed.CustomerID)
	return removed, nil
}

// ListEntries returns entries ascending by (entry date, id)
func (s *LedgerService) ListEntries(ctx context.Context, filter models.LedgerFilter) ([]models.CustomerLedgerEntry, error) {
	if filter.CustomerID <= 0 {
		return nil, apperr.Validation("customer_id is required")
	}
	var entries []models.CustomerLedgerEntry
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		entries, err = tx.Ledger().List(ctx, filter)
		return err
	})
	return entries, err
}

// VerifyChain recomputes the running sum and reports the first stored balance
// that disagrees with it
func (s *LedgerService) VerifyChain(ctx context.Context, customerID int) (*models.ChainVerification, error) {
	entries, err := s.ListEntries(ctx, models.LedgerFilter{CustomerID: customerID})
	if err != nil {
		return nil, err
	}

	v := &models.ChainVerification{CustomerID: customerID, EntryCount: len(entries), Consistent: true}
	var running int64
	for _, e := range entries {
		running += e.SignedAmount
		if e.SignedAmount != e.EntryType.SignedAmount(e.Amount) || e.BalanceAfter != running {
			id := e.ID
			v.Consistent = false
			v.FirstBrokenID = &id
			v.ExpectedBalance = running
			v.StoredBalance = e.BalanceAfter
			return v, nil
		}
	}
	v.ExpectedBalance = running
	v.StoredBalance = running
	return v, nil
}
