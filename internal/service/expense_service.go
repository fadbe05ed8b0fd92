package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shopkeeper/internal/domain"
	"shopkeeper/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseInput describes an expense to log. Date defaults to now.
type ExpenseInput struct {
	Title    string
	Category domain.ExpenseCategory
	Amount   decimal.Decimal
	Date     *time.Time
	Note     string
}

// ExpenseService defines the interface for the expense log
type ExpenseService interface {
	CreateExpense(ctx context.Context, input ExpenseInput) (*domain.Expense, error)
	ListExpenses(ctx context.Context) ([]*domain.Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

type expenseService struct {
	expenses repository.ExpenseRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewExpenseService creates a new instance of ExpenseService
func NewExpenseService(expenses repository.ExpenseRepository, logger *zap.Logger) ExpenseService {
	return &expenseService{
		expenses: expenses,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *expenseService) CreateExpense(ctx context.Context, input ExpenseInput) (*domain.Expense, error) {
	expense := &domain.Expense{
		ID:       uuid.New(),
		Title:    strings.TrimSpace(input.Title),
		Category: input.Category,
		Amount:   input.Amount,
		Date:     s.now(),
		Note:     strings.TrimSpace(input.Note),
	}
	if input.Date != nil && !input.Date.IsZero() {
		expense.Date = *input.Date
	}

	switch {
	case expense.Title == "":
		return nil, validation("title is required")
	case !expense.Category.Valid():
		return nil, validation("unknown expense category %q", expense.Category)
	}
	if err := checkMoney("amount", expense.Amount); err != nil {
		return nil, err
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		s.logger.Error("Failed to create expense", zap.Error(err))
		return nil, internal("failed to create expense", err)
	}

	s.logger.Info("Expense recorded",
		zap.String("expense_id", expense.ID.String()),
		zap.String("category", string(expense.Category)),
	)
	return expense, nil
}

func (s *expenseService) ListExpenses(ctx context.Context) ([]*domain.Expense, error) {
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, internal("failed to list expenses", err)
	}
	return expenses, nil
}

func (s *expenseService) GetExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	expense, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, s.expenseError("failed to get expense", id, err)
	}
	return expense, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if err := s.expenses.Delete(ctx, id); err != nil {
		return s.expenseError("failed to delete expense", id, err)
	}
	s.logger.Info("Expense deleted", zap.String("expense_id", id.String()))
	return nil
}

func (s *expenseService) expenseError(message string, id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrExpenseNotFound) {
		return notFound("expense not found")
	}
	s.logger.Error(message, zap.String("expense_id", id.String()), zap.Error(err))
	return internal(message, err)
}
