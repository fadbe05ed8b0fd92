package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinStock is the reorder threshold applied when none is given
const DefaultMinStock = 5

// Product is a catalog entry. Stock is the on-hand quantity and never
// negative.
type Product struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Category     string          `json:"category" db:"category"`
	Brand        string          `json:"brand,omitempty" db:"brand"`
	Unit         string          `json:"unit" db:"unit"`
	CostPrice    decimal.Decimal `json:"costPrice" db:"cost_price"`
	SellingPrice decimal.Decimal `json:"sellingPrice" db:"selling_price"`
	Stock        int             `json:"stock" db:"stock"`
	MinStock     int             `json:"minStock" db:"min_stock"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsLowStock reports whether stock has fallen strictly below the threshold
func (p *Product) IsLowStock() bool {
	return p.Stock < p.MinStock
}

// StockValue is the product's on-hand stock valued at cost
func (p *Product) StockValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock)))
}
