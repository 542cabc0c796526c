package posting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Line is a ledger posting before it is tied to a voucher revision.
type Line struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Narration string
}

// BillOpKind enumerates bill side effects.
type BillOpKind string

const (
	BillCreate BillOpKind = "create"
	BillSettle BillOpKind = "settle"
)

// BillOp is a bill side effect of a voucher.
type BillOp struct {
	Kind     BillOpKind
	BillType bills.BillType
	PartyID  int64
	Amount   decimal.Decimal
	DueDate  time.Time
}

// autoRule selects the side postings derived from costed stock moves.
type autoRule int

const (
	autoNone autoRule = iota
	autoCOGS
	autoAdjustment
)

// Artifacts is everything a voucher revision writes.
type Artifacts struct {
	VoucherType accounting.VoucherType
	Totals      accounting.Totals
	Postings    []Line
	StockMoves  []inventory.StockMove
	BillOps     []BillOp

	auto autoRule
}

type ledger struct {
	lines []Line
}

// dr adds a debit; negative amounts become a credit and zero is skipped.
func (l *ledger) dr(accountID int64, amount decimal.Decimal, narration string) {
	amount = shared.Round2(amount)
	switch {
	case amount.IsZero():
	case amount.IsNegative():
		l.lines = append(l.lines, Line{AccountID: accountID, Credit: amount.Neg(), Narration: narration})
	default:
		l.lines = append(l.lines, Line{AccountID: accountID, Debit: amount, Narration: narration})
	}
}

func (l *ledger) cr(accountID int64, amount decimal.Decimal, narration string) {
	l.dr(accountID, amount.Neg(), narration)
}

// Sums returns the debit and credit totals of lines.
func Sums(lines []Line) (debit, credit decimal.Decimal) {
	for _, ln := range lines {
		debit = debit.Add(ln.Debit)
		credit = credit.Add(ln.Credit)
	}
	return debit, credit
}

// CheckBalanced fails with a validation error unless debits equal credits.
func CheckBalanced(op string, lines []Line) error {
	debit, credit := Sums(lines)
	if !shared.Round2(debit).Equal(shared.Round2(credit)) {
		return shared.Validation(op, "postings do not balance: debit %s credit %s", debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}
