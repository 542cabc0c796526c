// Package posting turns a voucher payload into ledger postings, stock moves
// and bill operations.
package posting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/catalog"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	"github.com/odyssey-erp/odyssey-books/internal/tax"
)

// Input is the resolved context of one build.
type Input struct {
	TenantID int64
	Payload  accounting.Payload
	Company  catalog.Company
	// Party is nil when the payload names none.
	Party *catalog.Party
	Chart accounts.Chart
	Units catalog.Units
}

// Handler builds the artifacts of one voucher type.
type Handler interface {
	Build(b *Builder, in Input) (*Artifacts, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(b *Builder, in Input) (*Artifacts, error)

// Build implements Handler.
func (f HandlerFunc) Build(b *Builder, in Input) (*Artifacts, error) {
	return f(b, in)
}

// Builder dispatches on voucher type.
type Builder struct {
	handlers  map[accounting.VoucherType]Handler
	qtyPlaces int32
}

// NewBuilder registers the handler of every supported voucher type.
func NewBuilder(qtyPlaces int32) *Builder {
	if qtyPlaces <= 0 {
		qtyPlaces = shared.DefaultQtyPlaces
	}
	b := &Builder{handlers: make(map[accounting.VoucherType]Handler), qtyPlaces: qtyPlaces}
	b.Register(accounting.VoucherSalesInvoice, salesInvoice)
	b.Register(accounting.VoucherPurchaseBill, purchaseBill)
	b.Register(accounting.VoucherCreditNote, creditNote)
	b.Register(accounting.VoucherDebitNote, debitNote)
	b.Register(accounting.VoucherReceipt, HandlerFunc(buildReceipt))
	b.Register(accounting.VoucherPayment, HandlerFunc(buildPayment))
	b.Register(accounting.VoucherContra, HandlerFunc(buildContra))
	b.Register(accounting.VoucherJournal, HandlerFunc(buildJournal))
	b.Register(accounting.VoucherDeliveryChallan, HandlerFunc(buildDeliveryChallan))
	b.Register(accounting.VoucherStockAdjustment, HandlerFunc(buildStockAdjustment))
	return b
}

// Register installs or replaces the handler of a voucher type.
func (b *Builder) Register(vt accounting.VoucherType, h Handler) {
	b.handlers[vt] = h
}

// Build produces the artifacts of a payload. Stock moves are not costed yet;
// call Finalize once the inventory engine has applied them.
func (b *Builder) Build(in Input) (*Artifacts, error) {
	vt := in.Payload.VoucherType
	h, ok := b.handlers[vt]
	if !ok {
		return nil, shared.Validation("posting.build", "unsupported voucher type %q", vt)
	}
	if in.Payload.Date.IsZero() {
		return nil, shared.Validation("posting.build", "date is required")
	}
	art, err := h.Build(b, in)
	if err != nil {
		return nil, err
	}
	art.VoucherType = vt
	if !vt.HasGST() {
		art.Totals.Tax = nil
	}
	for i := range art.StockMoves {
		art.StockMoves[i].TenantID = in.TenantID
	}
	return art, nil
}

// Finalize adds the side postings derived from costed stock moves and checks
// the complete posting set balances.
func (b *Builder) Finalize(in Input, art *Artifacts, costed []inventory.StockMove) error {
	art.StockMoves = costed
	var inValue, outValue decimal.Decimal
	for _, m := range costed {
		if m.Direction == accounting.StockIn {
			inValue = inValue.Add(m.Value)
		} else {
			outValue = outValue.Add(m.CostValue)
		}
	}
	l := ledger{lines: art.Postings}
	switch art.auto {
	case autoCOGS:
		cogs, inv, err := systemPair(in.Chart, accounts.CodeCOGS)
		if err != nil {
			return err
		}
		l.dr(cogs, outValue, "cost of goods sold")
		l.cr(inv, outValue, "cost of goods sold")
		l.dr(inv, inValue, "returned stock")
		l.cr(cogs, inValue, "returned stock")
	case autoAdjustment:
		adj, inv, err := systemPair(in.Chart, accounts.CodeInventoryAdjustment)
		if err != nil {
			return err
		}
		l.dr(inv, inValue, "stock adjustment")
		l.cr(adj, inValue, "stock adjustment")
		l.dr(adj, outValue, "stock adjustment")
		l.cr(inv, outValue, "stock adjustment")
		art.Totals = accounting.Totals{Net: inValue.Add(outValue)}
	}
	art.Postings = l.lines
	return CheckBalanced("posting.finalize", art.Postings)
}

func systemPair(chart accounts.Chart, code string) (int64, int64, error) {
	other, err := chart.ID(code)
	if err != nil {
		return 0, 0, err
	}
	inv, err := chart.ID(accounts.CodeInventory)
	if err != nil {
		return 0, 0, err
	}
	return other, inv, nil
}

// DraftTotals computes totals without enforcing the type rules so drafts can
// be saved incomplete.
func (b *Builder) DraftTotals(in Input) accounting.Totals {
	p := in.Payload
	switch {
	case p.VoucherType.HasGST():
		return tax.ComputeVoucherTaxes(p.Lines.Items, p.Lines.Charges, gstType(in), p.RoundOff).Totals()
	case p.VoucherType == accounting.VoucherJournal:
		var debit decimal.Decimal
		for _, ln := range p.Lines.Journal {
			debit = debit.Add(ln.Debit)
		}
		return accounting.Totals{Net: shared.Round2(debit)}
	case p.Amount.IsPositive():
		return accounting.Totals{Net: shared.Round2(p.Amount)}
	default:
		var net decimal.Decimal
		for _, it := range p.Lines.Items {
			net = net.Add(tax.LineAmount(it))
		}
		return accounting.Totals{Net: shared.Round2(net)}
	}
}

// ValidateDraft applies the checks that hold for every draft.
func ValidateDraft(p accounting.Payload) error {
	const op = "posting.draft"
	if !p.VoucherType.Valid() {
		return shared.Validation(op, "unsupported voucher type %q", p.VoucherType)
	}
	if p.Date.IsZero() {
		return shared.Validation(op, "date is required")
	}
	if p.Amount.IsNegative() {
		return shared.Validation(op, "amount must not be negative")
	}
	for i, it := range p.Lines.Items {
		if it.Quantity.IsNegative() || it.Rate.IsNegative() || it.Discount.IsNegative() || it.Amount.IsNegative() || it.TaxRate.IsNegative() {
			return shared.Validation(op, "item %d has negative values", i+1)
		}
	}
	for i, ch := range p.Lines.Charges {
		if ch.Amount.IsNegative() || ch.TaxRate.IsNegative() {
			return shared.Validation(op, "charge %d has negative values", i+1)
		}
	}
	for i, ln := range p.Lines.Journal {
		if ln.Debit.IsNegative() || ln.Credit.IsNegative() {
			return shared.Validation(op, "journal line %d has negative values", i+1)
		}
	}
	return nil
}

func gstType(in Input) accounting.GSTType {
	partyState := ""
	if in.Party != nil {
		partyState = in.Party.Address.State
	}
	return tax.ResolveGSTType(in.Payload.GSTType, in.Company.Headquarters.State, partyState)
}

// requireParty returns the party and its ledger account.
func requireParty(op string, in Input) (*catalog.Party, int64, error) {
	if in.Party == nil {
		return nil, 0, shared.Validation(op, "party is required")
	}
	if _, ok := in.Chart.Lookup(in.Party.LedgerAccountID); !ok {
		return nil, 0, shared.NotFound(op, "ledger account %d of party %d not found", in.Party.LedgerAccountID, in.Party.ID)
	}
	return in.Party, in.Party.LedgerAccountID, nil
}

// requireAccount checks that id is an active account of the tenant.
func requireAccount(op, field string, in Input, id int64) error {
	if id == 0 {
		return shared.Validation(op, "%s is required", field)
	}
	if _, ok := in.Chart.Lookup(id); !ok {
		return shared.NotFound(op, "%s %d not found", field, id)
	}
	return nil
}

func dueDate(in Input, party *catalog.Party) time.Time {
	if in.Payload.DueDate != nil && !in.Payload.DueDate.IsZero() {
		return *in.Payload.DueDate
	}
	days := 0
	if party != nil {
		days = party.CreditDaysDefault
	}
	return in.Payload.Date.AddDate(0, 0, days)
}

// stockMove converts an item line into a base-unit stock move draft.
func (b *Builder) stockMove(op string, in Input, idx int, it accounting.ItemLine, qty decimal.Decimal, dir accounting.StockDirection) (inventory.StockMove, error) {
	if it.ProductID == 0 {
		return inventory.StockMove{}, shared.Validation(op, "item %d: product is required", idx+1)
	}
	factor := in.Units.Factor(it.Unit)
	base := shared.RoundQty(qty.Mul(factor), b.qtyPlaces)
	if !base.IsPositive() {
		return inventory.StockMove{}, shared.Validation(op, "item %d: quantity must be positive", idx+1)
	}
	return inventory.StockMove{
		LineIndex:    idx,
		ProductID:    it.ProductID,
		VariantID:    it.VariantID,
		Direction:    dir,
		QuantityBase: base,
		Valuation:    inventory.ValueEntered,
		Rate:         it.Rate.Div(factor).Round(inventory.RatePlaces),
	}, nil
}
