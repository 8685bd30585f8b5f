// Package repositories is the PostgreSQL implementation of store.Store.
// Every repository runs against the pgx transaction of the current unit of work.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wholesale-backend/internal/store"
)

// DBTX is the subset of pgx shared by pools and transactions
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken through
// the Lock* methods are held until fn returns.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	pgTx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer pgTx.Rollback(ctx)

	if err := fn(ctx, &tx{db: pgTx}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	db DBTX
}

func (t *tx) Catalog() store.CatalogRepository  { return &CatalogRepository{DB: t.db} }
func (t *tx) Stock() store.StockRepository      { return &StockRepository{DB: t.db} }
func (t *tx) Orders() store.OrderRepository     { return &OrderRepository{DB: t.db} }
func (t *tx) Returns() store.ReturnRepository   { return &ReturnRepository{DB: t.db} }
func (t *tx) Ledger() store.LedgerRepository    { return &LedgerRepository{DB: t.db} }
func (t *tx) Closings() store.ClosingRepository { return &ClosingRepository{DB: t.db} }

// filter accumulates WHERE conditions with positional arguments
type filter struct {
	conditions []string
	args       []any
}

func (f *filter) add(condition string, arg any) {
	f.args = append(f.args, arg)
	f.conditions = append(f.conditions, fmt.Sprintf(condition, len(f.args)))
}

func (f *filter) where() string {
	if len(f.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conditions, " AND ")
}

// page appends LIMIT/OFFSET when limit is set
func (f *filter) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	f.args = append(f.args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(f.args)-1, len(f.args))
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
