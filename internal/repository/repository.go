package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every repository can
// run either standalone or inside a ledger transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repositories groups the shop's repositories bound to one Querier
type Repositories struct {
	Products  ProductRepository
	Sales     SaleRepository
	Purchases PurchaseRepository
	Expenses  ExpenseRepository
	Users     UserRepository
}

// NewRepositories binds every repository to q
func NewRepositories(q Querier) Repositories {
	return Repositories{
		Products:  NewProductRepository(q),
		Sales:     NewSaleRepository(q),
		Purchases: NewPurchaseRepository(q),
		Expenses:  NewExpenseRepository(q),
		Users:     NewUserRepository(q),
	}
}

// Transactor runs a unit of work against repositories that share a single
// database transaction. The transaction commits only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isOutOfRange reports numeric_value_out_of_range, raised when an integer
// or NUMERIC value overflows its column.
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}
