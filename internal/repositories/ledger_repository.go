package repositories

import (
	"context"
	"fmt"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
)

type LedgerRepository struct {
	DB DBTX
}

func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

// ledgerLockSpace keeps customer ledger advisory locks apart from other users of pg_advisory_xact_lock
const ledgerLockSpace = 7301

const ledgerColumns = `id, customer_id, entry_date, entry_type, amount, signed_amount, balance_after,
	reference_type, reference_id, memo, created_by_user_id, created_at`

func scanLedgerEntry(row rowScanner) (*models.CustomerLedgerEntry, error) {
	var e models.CustomerLedgerEntry
	err := row.Scan(&e.ID, &e.CustomerID, &e.EntryDate, &e.EntryType, &e.Amount, &e.SignedAmount,
		&e.BalanceAfter, &e.ReferenceType, &e.ReferenceID, &e.Memo, &e.CreatedByUserID, &e.CreatedAt)
	return &e, err
}

func (r *LedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.CustomerLedgerEntry, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.CustomerLedgerEntry{}
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *LedgerRepository) queryEntry(ctx context.Context, query string, args ...any) (*models.CustomerLedgerEntry, error) {
	e, err := scanLedgerEntry(r.DB.QueryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return e, nil
}

// LockCustomer takes a transaction-scoped advisory lock, so even a customer
// with no entries yet has a single writer.
func (r *LedgerRepository) LockCustomer(ctx context.Context, customerID int) error {
	if _, err := r.DB.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, ledgerLockSpace, customerID); err != nil {
		return fmt.Errorf("failed to lock customer ledger: %w", err)
	}
	return nil
}

func (r *LedgerRepository) EntryBefore(ctx context.Context, customerID int, date time.Time, id int) (*models.CustomerLedgerEntry, error) {
	return r.queryEntry(ctx, `
		SELECT `+ledgerColumns+`
		FROM customer_ledger_entries
		WHERE customer_id = $1 AND (entry_date, id) < ($2, $3)
		ORDER BY entry_date DESC, id DESC
		LIMIT 1
	`, customerID, date, id)
}

func (r *LedgerRepository) LastEntry(ctx context.Context, customerID int) (*models.CustomerLedgerEntry, error) {
	return r.queryEntry(ctx, `
		SELECT `+ledgerColumns+`
		FROM customer_ledger_entries
		WHERE customer_id = $1
		ORDER BY entry_date DESC, id DESC
		LIMIT 1
	`, customerID)
}

func (r *LedgerRepository) EntriesFrom(ctx context.Context, customerID int, date time.Time, id int) ([]models.CustomerLedgerEntry, error) {
	return r.queryEntries(ctx, `
		SELECT `+ledgerColumns+`
		FROM customer_ledger_entries
		WHERE customer_id = $1 AND (entry_date, id) >= ($2, $3)
		ORDER BY entry_date, id
	`, customerID, date, id)
}

// FindByReference prefers the newest operator-reversible entry; owned entries
// (SALE, RETURN_DEPOSIT) only match when no reversible one carries the reference.
func (r *LedgerRepository) FindByReference(ctx context.Context, referenceType string, referenceID int) (*models.CustomerLedgerEntry, error) {
	return r.queryEntry(ctx, `
		SELECT `+ledgerColumns+`
		FROM customer_ledger_entries
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY entry_type IN ($3, $4, $5) DESC, id DESC
		LIMIT 1
	`, referenceType, referenceID,
		models.LedgerEntryTypeDeposit, models.LedgerEntryTypeWithdrawal, models.LedgerEntryTypeAdjustment)
}

func (r *LedgerRepository) Insert(ctx context.Context, e *models.CustomerLedgerEntry) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO customer_ledger_entries (
			customer_id, entry_date, entry_type, amount, signed_amount, balance_after,
			reference_type, reference_id, memo, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`,
		e.CustomerID,
		e.EntryDate,
		e.EntryType,
		e.Amount,
		e.SignedAmount,
		e.BalanceAfter,
		e.ReferenceType,
		e.ReferenceID,
		e.Memo,
		e.CreatedByUserID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) UpdateBalanceAfter(ctx context.Context, id int, balanceAfter int64) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customer_ledger_entries SET balance_after=$1 WHERE id=$2`, balanceAfter, id)
	if err != nil {
		return fmt.Errorf("failed to update running balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("ledger entry", id)
	}
	return nil
}

func (r *LedgerRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM customer_ledger_entries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry %d: %w", id, err)
	}
	return nil
}

func (r *LedgerRepository) List(ctx context.Context, lf models.LedgerFilter) ([]models.CustomerLedgerEntry, error) {
	var f filter
	f.add("customer_id = $%d", lf.CustomerID)
	if lf.EntryType != "" {
		f.add("entry_type = $%d", lf.EntryType)
	}
	if lf.StartDate != nil {
		f.add("entry_date >= $%d", *lf.StartDate)
	}
	if lf.EndDate != nil {
		f.add("entry_date < $%d", *lf.EndDate)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM customer_ledger_entries
		%s
		ORDER BY entry_date, id
		%s
	`, ledgerColumns, f.where(), f.page(lf.Limit, lf.Offset))

	return r.queryEntries(ctx, query, f.args...)
}

func (r *LedgerRepository) CountEntries(ctx context.Context, customerID int) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM customer_ledger_entries WHERE customer_id=$1`, customerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}
