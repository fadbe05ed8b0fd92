package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
)

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	List(ctx context.Context) ([]*domain.Expense, error)
	// ListSince returns expenses dated on or after since, with no upper bound
	ListSince(ctx context.Context, since time.Time) ([]*domain.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type expenseRepository struct {
	db Querier
}

// NewExpenseRepository creates a new instance of ExpenseRepository
func NewExpenseRepository(db Querier) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, title, category, amount, date, note, created_at, updated_at`

func scanExpense(row rowScanner) (*domain.Expense, error) {
	expense := &domain.Expense{}
	var category string
	err := row.Scan(
		&expense.ID,
		&expense.Title,
		&category,
		&expense.Amount,
		&expense.Date,
		&expense.Note,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	expense.Category = domain.ExpenseCategory(category)
	return expense, nil
}

// Create inserts a new expense
func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, title, category, amount, date, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		expense.ID,
		expense.Title,
		string(expense.Category),
		expense.Amount,
		expense.Date,
		expense.Note,
	).Scan(&expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// FindByID retrieves an expense by ID
func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	expense, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	return expense, nil
}

// List returns all expenses, most recent date first
func (r *expenseRepository) List(ctx context.Context) ([]*domain.Expense, error) {
	return r.list(ctx, ``)
}

func (r *expenseRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.Expense, error) {
	return r.list(ctx, `WHERE date >= $1`, since)
}

func (r *expenseRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses `+where+` ORDER BY date DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// Delete removes an expense
func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}
