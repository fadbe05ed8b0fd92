package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies outgoing costs
type ExpenseCategory string

const (
	ExpenseRent          ExpenseCategory = "Rent"
	ExpenseElectricity   ExpenseCategory = "Electricity"
	ExpenseSalary        ExpenseCategory = "Salary"
	ExpenseTransport     ExpenseCategory = "Transport"
	ExpenseMiscellaneous ExpenseCategory = "Miscellaneous"
)

// Valid reports whether c is one of the known categories
func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseRent, ExpenseElectricity, ExpenseSalary, ExpenseTransport, ExpenseMiscellaneous:
		return true
	}
	return false
}

// Expense is an outgoing cost. It has no relation to products.
type Expense struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Category  ExpenseCategory `json:"category" db:"category"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Date      time.Time       `json:"date" db:"date"`
	Note      string          `json:"note,omitempty" db:"note"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}
