package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for every amount
const MoneyScale = 2

// MaxQuantity is the largest stock level or line quantity the store accepts
const MaxQuantity = math.MaxInt32

// MaxMoney is the largest amount a NUMERIC(12,2) column holds
var MaxMoney = decimal.RequireFromString("9999999999.99")

// FitsMoneyScale reports whether d has no more than MoneyScale decimal places
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// FitsMoneyRange reports whether |d| does not exceed MaxMoney
func FitsMoneyRange(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(MaxMoney)
}
