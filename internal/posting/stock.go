package posting

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	"github.com/odyssey-erp/odyssey-books/internal/tax"
)

// buildDeliveryChallan moves stock without touching the ledger. Returned goods
// come back at the moving average.
func buildDeliveryChallan(b *Builder, in Input) (*Artifacts, error) {
	const op = "posting.delivery_challan"
	p := in.Payload
	if err := ValidateDraft(p); err != nil {
		return nil, err
	}
	if len(p.Lines.Items) == 0 {
		return nil, shared.Validation(op, "at least one item is required")
	}
	dir := p.StockDirection
	switch dir {
	case "":
		dir = accounting.StockOut
	case accounting.StockIn, accounting.StockOut:
	default:
		return nil, shared.Validation(op, "stock direction must be in or out")
	}
	art := &Artifacts{}
	var net decimal.Decimal
	for i, it := range p.Lines.Items {
		m, err := b.stockMove(op, in, i, it, it.Quantity, dir)
		if err != nil {
			return nil, err
		}
		if dir == accounting.StockIn {
			m.Valuation = inventory.ValueAtAverage
		}
		art.StockMoves = append(art.StockMoves, m)
		net = net.Add(tax.LineAmount(it))
	}
	art.Totals = accounting.Totals{Net: shared.Round2(net)}
	return art, nil
}

// buildStockAdjustment books signed adjustments against Inventory Adjustment.
// A positive adjustment with an amount is valued at that amount, otherwise at
// the moving average.
func buildStockAdjustment(b *Builder, in Input) (*Artifacts, error) {
	const op = "posting.stock_adjustment"
	p := in.Payload
	art := &Artifacts{auto: autoAdjustment}
	for i, it := range p.Lines.Items {
		if it.Adjustment.IsZero() {
			continue
		}
		dir := accounting.StockIn
		if it.Adjustment.IsNegative() {
			dir = accounting.StockOut
		}
		m, err := b.stockMove(op, in, i, it, it.Adjustment.Abs(), dir)
		if err != nil {
			return nil, err
		}
		if dir == accounting.StockIn {
			if it.Amount.IsPositive() {
				m.Value = shared.Round2(it.Amount)
			} else {
				m.Valuation = inventory.ValueAtAverage
			}
		}
		art.StockMoves = append(art.StockMoves, m)
	}
	if len(art.StockMoves) == 0 {
		return nil, shared.Validation(op, "at least one line with a non-zero adjustment is required")
	}
	return art, nil
}
