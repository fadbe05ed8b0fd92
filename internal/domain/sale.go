package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was settled
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentCard   PaymentMethod = "Card"
	PaymentUPI    PaymentMethod = "UPI"
	PaymentCredit PaymentMethod = "Credit"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCredit:
		return true
	}
	return false
}

// Sale is an immutable bill. Lines keep the product name, price and cost as
// they were when the sale was recorded.
type Sale struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CustomerName  string          `json:"customerName,omitempty" db:"customer_name"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	FinalAmount   decimal.Decimal `json:"finalAmount" db:"final_amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	CreatedBy     *uuid.UUID      `json:"createdBy,omitempty" db:"created_by"`
	CreatedByName string          `json:"createdByName,omitempty" db:"created_by_name"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// SaleItem is one line of a sale
type SaleItem struct {
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CostPrice decimal.Decimal `json:"costPrice" db:"cost_price"`
	Total     decimal.Decimal `json:"total" db:"total"`
}
