package models

import "time"

// LedgerEntryType represents the type of customer ledger entry
type LedgerEntryType string

const (
	LedgerEntryTypeDeposit       LedgerEntryType = "DEPOSIT"        // Payment received from customer
	LedgerEntryTypeWithdrawal    LedgerEntryType = "WITHDRAWAL"     // Money paid back to customer
	LedgerEntryTypeSale          LedgerEntryType = "SALE"           // Receivable from a completed delivery
	LedgerEntryTypeAdjustment    LedgerEntryType = "ADJUSTMENT"     // Manual correction, sign as entered
	LedgerEntryTypeReturnDeposit LedgerEntryType = "RETURN_DEPOSIT" // Credit for an approved return
)

// Ledger reference types
const (
	LedgerRefOrder  = "order"
	LedgerRefReturn = "return"
	LedgerRefManual = "manual"
)

// Valid reports whether t is a known entry type
func (t LedgerEntryType) Valid() bool {
	switch t {
	case LedgerEntryTypeDeposit, LedgerEntryTypeWithdrawal, LedgerEntryTypeSale,
		LedgerEntryTypeAdjustment, LedgerEntryTypeReturnDeposit:
		return true
	}
	return false
}

// Reversible reports whether entries of this type may be removed by an operator.
// SALE and RETURN_DEPOSIT belong to delivery and returns.
func (t LedgerEntryType) Reversible() bool {
	return t == LedgerEntryTypeDeposit || t == LedgerEntryTypeWithdrawal || t == LedgerEntryTypeAdjustment
}

// SignedAmount applies the balance direction of the entry type to amount
func (t LedgerEntryType) SignedAmount(amount int64) int64 {
	switch t {
	case LedgerEntryTypeWithdrawal, LedgerEntryTypeSale:
		return -amount
	default:
		return amount
	}
}

// CustomerLedgerEntry is one line of a customer's balance history.
// BalanceAfter is the running sum of SignedAmount ordered by (EntryDate, ID).
type CustomerLedgerEntry struct {
	ID              int             `json:"id"`
	CustomerID      int             `json:"customer_id"`
	EntryDate       time.Time       `json:"entry_date"`
	EntryType       LedgerEntryType `json:"entry_type"`
	Amount          int64           `json:"amount"`
	SignedAmount    int64           `json:"signed_amount"`
	BalanceAfter    int64           `json:"balance_after"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     *int            `json:"reference_id"`
	Memo            string          `json:"memo"`
	CreatedByUserID int             `json:"created_by_user_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Before orders entries by (EntryDate, ID)
func (e *CustomerLedgerEntry) Before(other *CustomerLedgerEntry) bool {
	if !e.EntryDate.Equal(other.EntryDate) {
		return e.EntryDate.Before(other.EntryDate)
	}
	return e.ID < other.ID
}

// CreateLedgerEntryRequest is used when appending a ledger entry
type CreateLedgerEntryRequest struct {
	CustomerID    int             `json:"customer_id" validate:"required,gt=0"`
	EntryType     LedgerEntryType `json:"entry_type" validate:"required,oneof=DEPOSIT WITHDRAWAL SALE ADJUSTMENT RETURN_DEPOSIT"`
	Amount        int64           `json:"amount"`
	EntryDate     *time.Time      `json:"entry_date"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   *int            `json:"reference_id"`
	Memo          string          `json:"memo" validate:"max=500"`
}

// LedgerFilter is used for filtering ledger entries
type LedgerFilter struct {
	CustomerID int             `json:"customer_id"`
	EntryType  LedgerEntryType `json:"entry_type"`
	StartDate  *time.Time      `json:"start_date"`
	EndDate    *time.Time      `json:"end_date"` // exclusive
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// LedgerBalance is the balance summary of one customer
type LedgerBalance struct {
	CustomerID int   `json:"customer_id"`
	Balance    int64 `json:"balance"`
	EntryCount int   `json:"entry_count"`
}

// ChainVerification reports the first entry whose stored balance disagrees
// with the recomputed running sum
type ChainVerification struct {
	CustomerID      int   `json:"customer_id"`
	EntryCount      int   `json:"entry_count"`
	Consistent      bool  `json:"consistent"`
	FirstBrokenID   *int  `json:"first_broken_id,omitempty"`
	ExpectedBalance int64 `json:"expected_balance"`
	StoredBalance   int64 `json:"stored_balance"`
}
