package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExpenseService_CreateDefaultsDate(t *testing.T) {
	store := newMemStore()
	expenses := NewExpenseService(store.repos().Expenses, zap.NewNop())

	before := time.Now()
	expense, err := expenses.CreateExpense(context.Background(), ExpenseInput{
		Title:    "Shop rent",
		Category: domain.ExpenseRent,
		Amount:   decimal.NewFromInt(15000),
	})
	require.NoError(t, err)
	assert.False(t, expense.Date.Before(before))

	listed, err := expenses.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestExpenseService_Validation(t *testing.T) {
	expenses := NewExpenseService(newMemStore().repos().Expenses, zap.NewNop())

	tests := []struct {
		name  string
		input ExpenseInput
	}{
		{"missing title", ExpenseInput{Category: domain.ExpenseRent, Amount: decimal.NewFromInt(1)}},
		{"unknown category", ExpenseInput{Title: "Snacks", Category: "Food", Amount: decimal.NewFromInt(1)}},
		{"negative amount", ExpenseInput{Title: "Bill", Category: domain.ExpenseElectricity, Amount: decimal.NewFromInt(-1)}},
		{"sub-paisa amount", ExpenseInput{Title: "Bill", Category: domain.ExpenseElectricity, Amount: decimal.RequireFromString("12.345")}},
		{"amount beyond column", ExpenseInput{Title: "Bill", Category: domain.ExpenseElectricity, Amount: decimal.RequireFromString("10000000000")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expenses.CreateExpense(context.Background(), tt.input)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestExpenseService_GetAndDelete(t *testing.T) {
	store := newMemStore()
	expenses := NewExpenseService(store.repos().Expenses, zap.NewNop())
	ctx := context.Background()
	date := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

	expense, err := expenses.CreateExpense(ctx, ExpenseInput{
		Title:    "Delivery van",
		Category: domain.ExpenseTransport,
		Amount:   decimal.NewFromInt(800),
		Date:     &date,
	})
	require.NoError(t, err)
	assert.Equal(t, date, expense.Date)

	found, err := expenses.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delivery van", found.Title)

	require.NoError(t, expenses.DeleteExpense(ctx, expense.ID))
	_, err = expenses.GetExpense(ctx, expense.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(expenses.DeleteExpense(ctx, uuid.New()), ErrNotFound))
}
