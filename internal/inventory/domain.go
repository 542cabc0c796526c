package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
)

// RatePlaces is the precision stored for unit costs.
const RatePlaces = 6

// Valuation selects how a stock-in move is valued.
type Valuation string

const (
	// ValueEntered uses the move's amount or quantity*rate.
	ValueEntered Valuation = "entered"
	// ValueAtAverage uses the current moving average, falling back to the move rate.
	ValueAtAverage Valuation = "average"
)

// Balance is the running total per product and variant. VariantID 0 means no variant.
type Balance struct {
	TenantID      int64
	ProductID     int64
	VariantID     int64
	OnHandQtyBase decimal.Decimal
	OnHandValue   decimal.Decimal
	AvgCost       decimal.Decimal
	UpdatedAt     time.Time
}

// StockMove is an immutable inventory movement of a voucher revision. Stock-in
// moves carry Rate/Value, stock-out moves carry the CostRate/CostValue captured
// when the move was applied.
type StockMove struct {
	ID           int64                     `json:"id"`
	TenantID     int64                     `json:"tenantId"`
	VoucherID    int64                     `json:"voucherId"`
	Revision     int                       `json:"revision"`
	LineIndex    int                       `json:"lineIndex"`
	ProductID    int64                     `json:"productId"`
	VariantID    int64                     `json:"variantId,omitempty"`
	Direction    accounting.StockDirection `json:"direction"`
	QuantityBase decimal.Decimal           `json:"quantityBase"`
	Valuation    Valuation                 `json:"valuation,omitempty"`
	Rate         decimal.Decimal           `json:"rate"`
	Value        decimal.Decimal           `json:"value"`
	CostRate     decimal.Decimal           `json:"costRate"`
	CostValue    decimal.Decimal           `json:"costValue"`
	IsVoided     bool                      `json:"isVoided"`
	CreatedAt    time.Time                 `json:"createdAt"`
	VoidedAt     *time.Time                `json:"voidedAt,omitempty"`
}

// BookValue is the inventory value moved: entered value for stock-in, historical cost for stock-out.
func (m StockMove) BookValue() decimal.Decimal {
	if m.Direction == accounting.StockOut {
		return m.CostValue
	}
	return m.Value
}

// Policy carries tenant level inventory rules.
type Policy struct {
	AllowNegativeStock bool

	// deferred keeps intermediate balances unclamped; Revise checks the
	// resulting balances instead.
	deferred bool
}

var (
	// ErrInsufficientStock triggered when a stock-out exceeds the quantity on hand.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidQuantity indicates invalid qty.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidDirection indicates an unknown move direction.
	ErrInvalidDirection = errors.New("inventory: direction must be in or out")
	// ErrBalanceNotFound indicates missing balance row.
	ErrBalanceNotFound = errors.New("inventory: balance not found")
)
