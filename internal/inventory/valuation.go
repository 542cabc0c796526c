package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Store exposes the transactional balance operations used by the engine.
// LockBalance must serialise concurrent writers of the same row and return a
// zero balance when none exists yet.
type Store interface {
	LockBalance(ctx context.Context, tenantID, productID, variantID int64) (Balance, error)
	SaveBalance(ctx context.Context, balance Balance) error
	RefreshAvailability(ctx context.Context, balance Balance) error
}

// Engine applies moving weighted-average costing to stock moves.
type Engine struct {
	qtyPlaces int32
}

// NewEngine builds Engine. qtyPlaces <= 0 uses the default precision.
func NewEngine(qtyPlaces int32) *Engine {
	if qtyPlaces <= 0 {
		qtyPlaces = shared.DefaultQtyPlaces
	}
	return &Engine{qtyPlaces: qtyPlaces}
}

// QtyPlaces returns the quantity precision.
func (e *Engine) QtyPlaces() int32 {
	return e.qtyPlaces
}

// ApplyAll applies moves in balance lock order (product, variant), keeping the
// caller order for moves of the same balance. Costs are written back into moves.
func (e *Engine) ApplyAll(ctx context.Context, st Store, p Policy, moves []StockMove) error {
	for _, idx := range lockOrder(moves, false) {
		if err := e.Apply(ctx, st, p, &moves[idx]); err != nil {
			return err
		}
	}
	return nil
}

// ReverseAll undoes moves in lock order, newest first within a balance.
func (e *Engine) ReverseAll(ctx context.Context, st Store, p Policy, moves []StockMove) error {
	for _, idx := range lockOrder(moves, true) {
		if err := e.Reverse(ctx, st, p, moves[idx]); err != nil {
			return err
		}
	}
	return nil
}

// Revise replaces the moves of one voucher revision with the moves of the
// next. Intermediate balances may go negative; negative stock is rejected only
// on the balances left once every move is booked. Costs are written back into next.
func (e *Engine) Revise(ctx context.Context, st Store, p Policy, previous, next []StockMove) error {
	rec := &revision{Store: st, final: make(map[balanceKey]Balance)}
	open := Policy{AllowNegativeStock: true, deferred: true}
	if err := e.ReverseAll(ctx, rec, open, previous); err != nil {
		return err
	}
	if err := e.ApplyAll(ctx, rec, open, next); err != nil {
		return err
	}
	for _, k := range rec.keys() {
		bal := rec.final[k]
		if !bal.OnHandQtyBase.IsNegative() && !bal.OnHandValue.IsNegative() {
			continue
		}
		if !p.AllowNegativeStock && bal.OnHandQtyBase.IsNegative() {
			return shared.Wrap(shared.ErrConflict, "inventory.revise", fmt.Errorf("%w: product %d variant %d short by %s",
				ErrInsufficientStock, bal.ProductID, bal.VariantID, bal.OnHandQtyBase.Neg().String()))
		}
		bal.OnHandQtyBase = shared.MaxZero(bal.OnHandQtyBase)
		bal.OnHandValue = shared.MaxZero(bal.OnHandValue)
		e.recomputeAverage(&bal)
		if err := e.save(ctx, st, bal); err != nil {
			return err
		}
	}
	return nil
}

// Apply books one move against its balance.
func (e *Engine) Apply(ctx context.Context, st Store, p Policy, m *StockMove) error {
	m.QuantityBase = shared.RoundQty(m.QuantityBase, e.qtyPlaces)
	if !m.QuantityBase.IsPositive() {
		return shared.Wrap(shared.ErrValidation, "inventory.apply", ErrInvalidQuantity)
	}
	bal, err := st.LockBalance(ctx, m.TenantID, m.ProductID, m.VariantID)
	if err != nil {
		return fmt.Errorf("inventory: lock balance: %w", err)
	}
	switch m.Direction {
	case accounting.StockIn:
		e.stockIn(&bal, m)
	case accounting.StockOut:
		if err := e.stockOut(&bal, p, m); err != nil {
			return err
		}
	default:
		return shared.Wrap(shared.ErrValidation, "inventory.apply", ErrInvalidDirection)
	}
	return e.save(ctx, st, bal)
}

// Reverse restores the balance effect of a previously applied move. Stock-in
// reversal removes the entered value; stock-out reversal adds back the
// historical cost captured on the move.
func (e *Engine) Reverse(ctx context.Context, st Store, p Policy, m StockMove) error {
	bal, err := st.LockBalance(ctx, m.TenantID, m.ProductID, m.VariantID)
	if err != nil {
		return fmt.Errorf("inventory: lock balance: %w", err)
	}
	qty := m.QuantityBase
	switch m.Direction {
	case accounting.StockIn:
		if !p.AllowNegativeStock && qty.GreaterThan(bal.OnHandQtyBase) {
			return insufficient("inventory.reverse", m, bal)
		}
		bal.OnHandQtyBase = p.clamp(bal.OnHandQtyBase.Sub(qty))
		bal.OnHandValue = p.clamp(bal.OnHandValue.Sub(m.Value))
	case accounting.StockOut:
		bal.OnHandQtyBase = bal.OnHandQtyBase.Add(qty)
		bal.OnHandValue = bal.OnHandValue.Add(m.CostValue)
	default:
		return shared.Wrap(shared.ErrValidation, "inventory.reverse", ErrInvalidDirection)
	}
	e.recomputeAverage(&bal)
	return e.save(ctx, st, bal)
}

func (e *Engine) stockIn(bal *Balance, m *StockMove) {
	qty := m.QuantityBase
	switch {
	case m.Valuation == ValueAtAverage:
		rate := bal.AvgCost
		if !rate.IsPositive() {
			rate = m.Rate
		}
		m.Rate = rate.Round(RatePlaces)
		m.Value = shared.Round2(rate.Mul(qty))
	case m.Value.IsZero():
		m.Value = shared.Round2(m.Rate.Mul(qty))
	default:
		m.Value = shared.Round2(m.Value)
	}
	if m.Rate.IsZero() {
		m.Rate = m.Value.Div(qty).Round(RatePlaces)
	}
	bal.OnHandQtyBase = bal.OnHandQtyBase.Add(qty)
	bal.OnHandValue = bal.OnHandValue.Add(m.Value)
	e.recomputeAverage(bal)
}

func (e *Engine) stockOut(bal *Balance, p Policy, m *StockMove) error {
	qty := m.QuantityBase
	if !p.AllowNegativeStock && qty.GreaterThan(bal.OnHandQtyBase) {
		return insufficient("inventory.apply", *m, *bal)
	}
	var costRate, costValue decimal.Decimal
	switch {
	case bal.OnHandQtyBase.IsPositive() && qty.Equal(bal.OnHandQtyBase):
		costRate = bal.OnHandValue.Div(bal.OnHandQtyBase)
		costValue = bal.OnHandValue
	case bal.OnHandQtyBase.IsPositive():
		costRate = bal.OnHandValue.Div(bal.OnHandQtyBase)
		costValue = shared.Round2(costRate.Mul(qty))
	default:
		costRate = bal.AvgCost
		costValue = shared.Round2(costRate.Mul(qty))
	}
	m.CostRate = costRate.Round(RatePlaces)
	m.CostValue = costValue
	bal.OnHandQtyBase = p.clamp(bal.OnHandQtyBase.Sub(qty))
	bal.OnHandValue = p.clamp(bal.OnHandValue.Sub(costValue))
	e.recomputeAverage(bal)
	return nil
}

// recomputeAverage keeps the stored average when nothing is on hand so a
// later stock-out at zero quantity can still be costed.
func (e *Engine) recomputeAverage(bal *Balance) {
	bal.OnHandQtyBase = shared.RoundQty(bal.OnHandQtyBase, e.qtyPlaces)
	if bal.OnHandQtyBase.IsPositive() {
		bal.AvgCost = bal.OnHandValue.Div(bal.OnHandQtyBase).Round(RatePlaces)
	}
}

func (e *Engine) save(ctx context.Context, st Store, bal Balance) error {
	if err := st.SaveBalance(ctx, bal); err != nil {
		return fmt.Errorf("inventory: save balance: %w", err)
	}
	if err := st.RefreshAvailability(ctx, bal); err != nil {
		return fmt.Errorf("inventory: refresh availability: %w", err)
	}
	return nil
}

func (p Policy) clamp(v decimal.Decimal) decimal.Decimal {
	if p.deferred {
		return v
	}
	return shared.MaxZero(v)
}

type balanceKey struct {
	productID, variantID int64
}

// revision remembers the last saved state of every balance it touches.
type revision struct {
	Store
	final map[balanceKey]Balance
}

func (r *revision) SaveBalance(ctx context.Context, b Balance) error {
	r.final[balanceKey{b.ProductID, b.VariantID}] = b
	return r.Store.SaveBalance(ctx, b)
}

func (r *revision) keys() []balanceKey {
	out := make([]balanceKey, 0, len(r.final))
	for k := range r.final {
		out = append(out, k)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].productID != out[b].productID {
			return out[a].productID < out[b].productID
		}
		return out[a].variantID < out[b].variantID
	})
	return out
}

func insufficient(op string, m StockMove, bal Balance) error {
	return shared.Wrap(shared.ErrConflict, op, fmt.Errorf("%w: product %d variant %d requested %s available %s",
		ErrInsufficientStock, m.ProductID, m.VariantID, m.QuantityBase.String(), bal.OnHandQtyBase.String()))
}

func lockOrder(moves []StockMove, newestFirst bool) []int {
	idx := make([]int, len(moves))
	for i := range idx {
		if newestFirst {
			idx[i] = len(moves) - 1 - i
		} else {
			idx[i] = i
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ma, mb := moves[idx[a]], moves[idx[b]]
		if ma.ProductID != mb.ProductID {
			return ma.ProductID < mb.ProductID
		}
		return ma.VariantID < mb.VariantID
	})
	return idx
}
