package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is an immutable record of stock bought from a supplier
type Purchase struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	SupplierName string          `json:"supplierName,omitempty" db:"supplier_name"`
	Items        []PurchaseItem  `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Date         time.Time       `json:"date" db:"date"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// PurchaseItem is one line of a purchase. Name is the product name at the
// time of purchase.
type PurchaseItem struct {
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	CostPrice decimal.Decimal `json:"costPrice" db:"cost_price"`
	Total     decimal.Decimal `json:"total" db:"total"`
}
