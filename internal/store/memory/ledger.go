package memory

import (
	"context"
	"sort"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type ledgerRepo struct{ st *state }

// LockCustomer is a no-op: the unit of work already holds the store lock
func (r ledgerRepo) LockCustomer(ctx context.Context, customerID int) error {
	return nil
}

// customerEntries returns a customer's entries ordered by (EntryDate, ID)
func (r ledgerRepo) customerEntries(customerID int) []models.CustomerLedgerEntry {
	out := []models.CustomerLedgerEntry{}
	for _, e := range r.st.ledger {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(&out[j]) })
	return out
}

func (r ledgerRepo) EntryBefore(ctx context.Context, customerID int, date time.Time, id int) (*models.CustomerLedgerEntry, error) {
	pivot := models.CustomerLedgerEntry{EntryDate: date, ID: id}
	var prev *models.CustomerLedgerEntry
	for _, e := range r.customerEntries(customerID) {
		if !e.Before(&pivot) {
			break
		}
		e := e
		prev = &e
	}
	return prev, nil
}

func (r ledgerRepo) LastEntry(ctx context.Context, customerID int) (*models.CustomerLedgerEntry, error) {
	entries := r.customerEntries(customerID)
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[len(entries)-1], nil
}

func (r ledgerRepo) EntriesFrom(ctx context.Context, customerID int, date time.Time, id int) ([]models.CustomerLedgerEntry, error) {
	pivot := models.CustomerLedgerEntry{EntryDate: date, ID: id}
	out := []models.CustomerLedgerEntry{}
	for _, e := range r.customerEntries(customerID) {
		if !e.Before(&pivot) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r ledgerRepo) FindByReference(ctx context.Context, referenceType string, referenceID int) (*models.CustomerLedgerEntry, error) {
	var found *models.CustomerLedgerEntry
	for _, e := range r.st.ledger {
		if e.ReferenceType != referenceType || e.ReferenceID == nil || *e.ReferenceID != referenceID {
			continue
		}
		if found == nil || better(e, *found) {
			e := e
			found = &e
		}
	}
	return found, nil
}

// better ranks reversible entries first, then newer ids
func better(a, b models.CustomerLedgerEntry) bool {
	if a.EntryType.Reversible() != b.EntryType.Reversible() {
		return a.EntryType.Reversible()
	}
	return a.ID > b.ID
}

func (r ledgerRepo) Insert(ctx context.Context, e *models.CustomerLedgerEntry) error {
	e.ID = r.st.nextID("customer_ledger_entries")
	e.CreatedAt = timeutil.Now()
	r.st.ledger[e.ID] = *e
	return nil
}

func (r ledgerRepo) UpdateBalanceAfter(ctx context.Context, id int, balanceAfter int64) error {
	e, ok := r.st.ledger[id]
	if !ok {
		return apperr.NotFound("ledger entry", id)
	}
	e.BalanceAfter = balanceAfter
	r.st.ledger[id] = e
	return nil
}

func (r ledgerRepo) Delete(ctx context.Context, id int) error {
	delete(r.st.ledger, id)
	return nil
}

func (r ledgerRepo) List(ctx context.Context, filter models.LedgerFilter) ([]models.CustomerLedgerEntry, error) {
	out := []models.CustomerLedgerEntry{}
	for _, e := range r.customerEntries(filter.CustomerID) {
		if filter.EntryType != "" && e.EntryType != filter.EntryType {
			continue
		}
		if filter.StartDate != nil && e.EntryDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !e.EntryDate.Before(*filter.EndDate) {
			continue
		}
		out = append(out, e)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (r ledgerRepo) CountEntries(ctx context.Context, customerID int) (int, error) {
	n := 0
	for _, e := range r.st.ledger {
		if e.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}
