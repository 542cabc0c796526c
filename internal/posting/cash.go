package posting

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

func buildReceipt(_ *Builder, in Input) (*Artifacts, error) {
	return buildSettlement("posting.receipt", in, bills.Receivable)
}

func buildPayment(_ *Builder, in Input) (*Artifacts, error) {
	return buildSettlement("posting.payment", in, bills.Payable)
}

// buildSettlement moves money between cash/bank and the party: a receipt
// debits cash, a payment credits it.
func buildSettlement(op string, in Input, billType bills.BillType) (*Artifacts, error) {
	p := in.Payload
	party, partyAccount, err := requireParty(op, in)
	if err != nil {
		return nil, err
	}
	if err := requireAccount(op, "cash/bank account", in, p.CashBankAccountID); err != nil {
		return nil, err
	}
	amount := shared.Round2(p.Amount)
	if !amount.IsPositive() {
		return nil, shared.Validation(op, "amount must be positive")
	}
	var l ledger
	if billType == bills.Receivable {
		l.dr(p.CashBankAccountID, amount, p.Narration)
		l.cr(partyAccount, amount, party.Name)
	} else {
		l.dr(partyAccount, amount, party.Name)
		l.cr(p.CashBankAccountID, amount, p.Narration)
	}
	return &Artifacts{
		Totals:   totalsOf(amount),
		Postings: l.lines,
		BillOps:  []BillOp{{Kind: BillSettle, BillType: billType, PartyID: party.ID, Amount: amount}},
	}, nil
}

func buildContra(_ *Builder, in Input) (*Artifacts, error) {
	const op = "posting.contra"
	p := in.Payload
	if err := requireAccount(op, "from account", in, p.FromAccountID); err != nil {
		return nil, err
	}
	if err := requireAccount(op, "to account", in, p.ToAccountID); err != nil {
		return nil, err
	}
	if p.FromAccountID == p.ToAccountID {
		return nil, shared.Validation(op, "from and to accounts must differ")
	}
	amount := shared.Round2(p.Amount)
	if !amount.IsPositive() {
		return nil, shared.Validation(op, "amount must be positive")
	}
	var l ledger
	l.dr(p.ToAccountID, amount, p.Narration)
	l.cr(p.FromAccountID, amount, p.Narration)
	return &Artifacts{Totals: totalsOf(amount), Postings: l.lines}, nil
}

func buildJournal(_ *Builder, in Input) (*Artifacts, error) {
	const op = "posting.journal"
	p := in.Payload
	if len(p.Lines.Journal) == 0 {
		return nil, shared.Validation(op, "at least one journal line is required")
	}
	var lines []Line
	for i, ln := range p.Lines.Journal {
		if err := requireAccount(op, "account", in, ln.AccountID); err != nil {
			return nil, err
		}
		debit, credit := shared.Round2(ln.Debit), shared.Round2(ln.Credit)
		if debit.IsNegative() || credit.IsNegative() || debit.IsPositive() == credit.IsPositive() {
			return nil, shared.Validation(op, "line %d must carry either a debit or a credit", i+1)
		}
		narration := ln.Narration
		if narration == "" {
			narration = p.Narration
		}
		lines = append(lines, Line{AccountID: ln.AccountID, Debit: debit, Credit: credit, Narration: narration})
	}
	if err := CheckBalanced(op, lines); err != nil {
		return nil, err
	}
	debit, _ := Sums(lines)
	return &Artifacts{Totals: totalsOf(debit), Postings: lines}, nil
}

func totalsOf(net decimal.Decimal) accounting.Totals {
	return accounting.Totals{Net: net}
}
