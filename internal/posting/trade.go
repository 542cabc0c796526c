package posting

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	"github.com/odyssey-erp/odyssey-books/internal/tax"
)

// tradeHandler builds the GST bearing vouchers. The party ledger takes the
// net amount on one side; items, charges, tax buckets and round off go to the
// other.
type tradeHandler struct {
	partyDebit   bool
	requireItems bool
	itemCode     string
	chargeCode   string
	taxCodes     [3]string
	// stock reports the direction of item moves and whether items move stock.
	stock     func(p accounting.Payload) (accounting.StockDirection, bool)
	valuation inventory.Valuation
	billOp    BillOpKind
	billType  bills.BillType
	auto      autoRule
}

var (
	outputTax = [3]string{accounts.CodeOutputCGST, accounts.CodeOutputSGST, accounts.CodeOutputIGST}
	inputTax  = [3]string{accounts.CodeInputCGST, accounts.CodeInputSGST, accounts.CodeInputIGST}
)

func always(dir accounting.StockDirection) func(accounting.Payload) (accounting.StockDirection, bool) {
	return func(accounting.Payload) (accounting.StockDirection, bool) { return dir, true }
}

func whenUpdateStock(dir accounting.StockDirection) func(accounting.Payload) (accounting.StockDirection, bool) {
	return func(p accounting.Payload) (accounting.StockDirection, bool) { return dir, p.UpdateStock }
}

var (
	salesInvoice = tradeHandler{
		partyDebit:   true,
		requireItems: true,
		itemCode:     accounts.CodeSales,
		chargeCode:   accounts.CodeSales,
		taxCodes:     outputTax,
		stock:        always(accounting.StockOut),
		billOp:       BillCreate,
		billType:     bills.Receivable,
		auto:         autoCOGS,
	}
	purchaseBill = tradeHandler{
		requireItems: true,
		itemCode:     accounts.CodeInventory,
		chargeCode:   accounts.CodePurchases,
		taxCodes:     inputTax,
		stock:        always(accounting.StockIn),
		valuation:    inventory.ValueEntered,
		billOp:       BillCreate,
		billType:     bills.Payable,
	}
	creditNote = tradeHandler{
		itemCode:   accounts.CodeSalesReturn,
		chargeCode: accounts.CodeSalesReturn,
		taxCodes:   outputTax,
		stock:      whenUpdateStock(accounting.StockIn),
		valuation:  inventory.ValueAtAverage,
		billOp:     BillSettle,
		billType:   bills.Receivable,
		auto:       autoCOGS,
	}
	debitNote = tradeHandler{
		partyDebit: true,
		itemCode:   accounts.CodePurchaseReturn,
		chargeCode: accounts.CodePurchaseReturn,
		taxCodes:   inputTax,
		stock:      whenUpdateStock(accounting.StockOut),
		billOp:     BillSettle,
		billType:   bills.Payable,
		auto:       autoCOGS,
	}
)

func (h tradeHandler) Build(b *Builder, in Input) (*Artifacts, error) {
	p := in.Payload
	op := "posting." + string(p.VoucherType)
	if err := ValidateDraft(p); err != nil {
		return nil, err
	}
	party, partyAccount, err := requireParty(op, in)
	if err != nil {
		return nil, err
	}
	if len(p.Lines.Items) == 0 {
		if h.requireItems {
			return nil, shared.Validation(op, "at least one item is required")
		}
		if len(p.Lines.Charges) == 0 {
			return nil, shared.Validation(op, "items or charges are required")
		}
	}

	itemAccount, err := in.Chart.ID(h.itemCode)
	if err != nil {
		return nil, err
	}
	chargeAccount, err := in.Chart.ID(h.chargeCode)
	if err != nil {
		return nil, err
	}
	roundOffAccount, err := in.Chart.ID(accounts.CodeRoundOff)
	if err != nil {
		return nil, err
	}
	var taxAccounts [3]int64
	for i, code := range h.taxCodes {
		if taxAccounts[i], err = in.Chart.ID(code); err != nil {
			return nil, err
		}
	}

	taxes := tax.ComputeVoucherTaxes(p.Lines.Items, p.Lines.Charges, gstType(in), p.RoundOff)
	net := taxes.Net()
	if !net.IsPositive() {
		return nil, shared.Validation(op, "net total must be positive")
	}

	var l ledger
	post := l.cr
	if h.partyDebit {
		l.dr(partyAccount, net, party.Name)
	} else {
		l.cr(partyAccount, net, party.Name)
		post = l.dr
	}

	art := &Artifacts{Totals: taxes.Totals(), auto: h.auto}
	dir, moves := h.stock(p)
	var itemTotal decimal.Decimal
	for _, cl := range taxes.Lines {
		if cl.Charge {
			ch := p.Lines.Charges[cl.Index]
			account := chargeAccount
			if ch.AccountID != 0 {
				if err := requireAccount(op, "charge account", in, ch.AccountID); err != nil {
					return nil, err
				}
				account = ch.AccountID
			}
			post(account, cl.Tax.Taxable, ch.Name)
			continue
		}
		itemTotal = itemTotal.Add(cl.Tax.Taxable)
		if !moves {
			continue
		}
		it := p.Lines.Items[cl.Index]
		m, err := b.stockMove(op, in, cl.Index, it, it.Quantity, dir)
		if err != nil {
			return nil, err
		}
		if dir == accounting.StockIn {
			m.Valuation = h.valuation
			if h.valuation == inventory.ValueEntered {
				m.Value = cl.Tax.Taxable
			}
		}
		art.StockMoves = append(art.StockMoves, m)
	}
	post(itemAccount, itemTotal, "items")
	post(taxAccounts[0], taxes.Breakdown.CGST, "CGST")
	post(taxAccounts[1], taxes.Breakdown.SGST, "SGST")
	post(taxAccounts[2], taxes.Breakdown.IGST, "IGST")
	post(roundOffAccount, taxes.Breakdown.RoundOff, "round off")
	art.Postings = l.lines

	art.BillOps = []BillOp{{Kind: h.billOp, BillType: h.billType, PartyID: party.ID, Amount: net}}
	if h.billOp == BillCreate {
		art.BillOps[0].DueDate = dueDate(in, party)
	}
	return art, nil
}
