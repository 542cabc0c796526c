package shared

import "github.com/shopspring/decimal"

// MoneyPlaces is the fixed precision for monetary amounts.
const MoneyPlaces = 2

// DefaultQtyPlaces is the default precision for quantities.
const DefaultQtyPlaces = 6

var hundred = decimal.NewFromInt(100)

// Round2 rounds a monetary amount half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundQty rounds a quantity to the configured number of places.
func RoundQty(d decimal.Decimal, places int32) decimal.Decimal {
	if places <= 0 {
		places = DefaultQtyPlaces
	}
	return d.Round(places)
}

// Percent returns round2(amount * rate / 100).
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(rate).Div(hundred))
}

// MaxZero clamps negative values to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
