// Package tax computes GST for voucher lines under the two bucket
// (intra-state / inter-state) model.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// NormalizeState trims and case-folds a state name for comparison.
func NormalizeState(state string) string {
	// Casers carry state and are not shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(state))
}

// ResolveGSTType returns the explicit type when valid, otherwise derives it
// from the company and party states. Missing states default to intra-state.
func ResolveGSTType(explicit accounting.GSTType, companyState, partyState string) accounting.GSTType {
	if explicit.Valid() {
		return explicit
	}
	c := NormalizeState(companyState)
	p := NormalizeState(partyState)
	if c == "" || p == "" {
		return accounting.GSTIntraState
	}
	if c == p {
		return accounting.GSTIntraState
	}
	return accounting.GSTInterState
}

// LineTax is the tax split of a single line.
type LineTax struct {
	Taxable   decimal.Decimal
	TaxAmount decimal.Decimal
	CGST      decimal.Decimal
	SGST      decimal.Decimal
	IGST      decimal.Decimal
}

// ComputeLineTax applies rate (percent) to amount and splits it into buckets.
func ComputeLineTax(amount, rate decimal.Decimal, gstType accounting.GSTType) LineTax {
	taxable := shared.Round2(amount)
	taxAmount := shared.Percent(taxable, rate)
	out := LineTax{Taxable: taxable, TaxAmount: taxAmount}
	if gstType == accounting.GSTInterState {
		out.IGST = taxAmount
		return out
	}
	out.CGST = shared.Round2(taxAmount.Div(decimal.NewFromInt(2)))
	out.SGST = taxAmount.Sub(out.CGST)
	return out
}

// LineAmount returns the explicit amount when positive, else quantity*rate - discount.
func LineAmount(item accounting.ItemLine) decimal.Decimal {
	if item.Amount.IsPositive() {
		return item.Amount
	}
	return item.Quantity.Mul(item.Rate).Sub(item.Discount)
}

// ComputedLine pairs a voucher line with its tax.
type ComputedLine struct {
	Index  int
	Charge bool
	Tax    LineTax
}

// VoucherTaxes is the aggregate result for a voucher.
type VoucherTaxes struct {
	Lines     []ComputedLine
	Breakdown accounting.TaxBreakdown
}

// Net returns the payable or receivable total.
func (v VoucherTaxes) Net() decimal.Decimal {
	return v.Breakdown.Gross.Add(v.Breakdown.RoundOff)
}

// ComputeVoucherTaxes normalises every line amount, applies per-line tax and aggregates.
func ComputeVoucherTaxes(items []accounting.ItemLine, charges []accounting.ChargeLine, gstType accounting.GSTType, roundOff decimal.Decimal) VoucherTaxes {
	out := VoucherTaxes{Breakdown: accounting.TaxBreakdown{GSTType: gstType}}
	add := func(idx int, charge bool, lt LineTax) {
		out.Lines = append(out.Lines, ComputedLine{Index: idx, Charge: charge, Tax: lt})
		b := &out.Breakdown
		b.Taxable = b.Taxable.Add(lt.Taxable)
		b.GSTTotal = b.GSTTotal.Add(lt.TaxAmount)
		b.CGST = b.CGST.Add(lt.CGST)
		b.SGST = b.SGST.Add(lt.SGST)
		b.IGST = b.IGST.Add(lt.IGST)
	}
	for i, item := range items {
		add(i, false, ComputeLineTax(LineAmount(item), item.TaxRate, gstType))
	}
	for i, ch := range charges {
		add(i, true, ComputeLineTax(ch.Amount, ch.TaxRate, gstType))
	}
	b := &out.Breakdown
	b.RoundOff = shared.Round2(roundOff)
	b.Gross = b.Taxable.Add(b.GSTTotal)
	return out
}

// Totals converts the aggregate into voucher totals.
func (v VoucherTaxes) Totals() accounting.Totals {
	breakdown := v.Breakdown
	return accounting.Totals{Net: v.Net(), Tax: &breakdown}
}
