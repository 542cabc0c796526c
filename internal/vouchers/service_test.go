package vouchers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/catalog"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

const (
	tenant      = int64(1)
	actor       = int64(7)
	partyID     = int64(9)
	partyLedger = int64(500)
	product     = int64(1)
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type recordedOp struct {
	operation string
	failed    bool
}

type recorder struct {
	ops []recordedOp
}

func (r *recorder) ObserveVoucher(operation, _ string, err error, _ time.Duration) {
	r.ops = append(r.ops, recordedOp{operation: operation, failed: err != nil})
}

type notifier struct {
	bumps int
	err   error
}

func (n *notifier) Bump(context.Context, int64) error {
	n.bumps++
	return n.err
}

type fixture struct {
	repo     *memoryRepo
	svc      *Service
	now      time.Time
	metrics  *recorder
	notifier *notifier
	codes    map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	repo := newMemoryRepo()
	repo.company = catalog.Company{
		ID:                   tenant,
		Name:                 "Odyssey Traders",
		FiscalYearStartMonth: 4,
		Timezone:             "Asia/Kolkata",
		Headquarters:         catalog.Address{State: "Karnataka"},
	}
	repo.parties[partyID] = catalog.Party{
		ID:                partyID,
		TenantID:          tenant,
		Name:              "Acme",
		Kind:              catalog.PartyBoth,
		LedgerAccountID:   partyLedger,
		CreditDaysDefault: 30,
		Address:           catalog.Address{State: "Karnataka"},
	}
	codes := make(map[string]int64)
	for i, sa := range accounts.SystemAccounts() {
		a := accounting.Account{ID: int64(i + 1), TenantID: tenant, Code: sa.Code, Name: sa.Name, Type: sa.Type, Group: sa.Group, IsSystem: true}
		repo.accounts = append(repo.accounts, a)
		codes[sa.Code] = a.ID
	}
	repo.accounts = append(repo.accounts, accounting.Account{ID: partyLedger, TenantID: tenant, Code: "AR-ACME", Name: "Acme", Type: accounting.AccountTypeAsset})

	f := &fixture{
		repo:     repo,
		now:      time.Date(2025, 5, 10, 10, 0, 0, 0, loc),
		metrics:  &recorder{},
		notifier: &notifier{},
		codes:    codes,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(repo, ServiceConfig{}, logger,
		WithNow(func() time.Time { return f.now }),
		WithMetrics(f.metrics),
		WithNotifier(f.notifier),
	)
	return f
}

func voucherDate() time.Time {
	return time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
}

func purchase(qty, rate string) accounting.Payload {
	return accounting.Payload{
		VoucherType: accounting.VoucherPurchaseBill,
		Date:        voucherDate(),
		PartyID:     partyID,
		Lines: accounting.Lines{Items: []accounting.ItemLine{
			{ProductID: product, Quantity: d(qty), Rate: d(rate), TaxRate: d("18")},
		}},
	}
}

func sale(qty, rate string) accounting.Payload {
	p := purchase(qty, rate)
	p.VoucherType = accounting.VoucherSalesInvoice
	return p
}

func (f *fixture) post(t *testing.T, p accounting.Payload) accounting.Voucher {
	t.Helper()
	v, err := f.svc.Create(context.Background(), tenant, actor, p, CreateOptions{Status: accounting.StatusPosted})
	require.NoError(t, err)
	return v
}

func (f *fixture) balance() inventory.Balance {
	return f.repo.state.balances[balanceKey{product, 0}]
}

func (f *fixture) activePostings(voucherID int64) []accounting.LedgerPosting {
	var out []accounting.LedgerPosting
	for _, p := range f.repo.state.postings {
		if p.VoucherID == voucherID && !p.IsVoided {
			out = append(out, p)
		}
	}
	return out
}

// net returns debit minus credit of an account over active postings of the voucher.
func (f *fixture) net(voucherID int64, code string) string {
	accountID, ok := f.codes[code]
	if !ok {
		accountID = partyLedger
	}
	sum := decimal.Zero
	for _, p := range f.activePostings(voucherID) {
		if p.AccountID == accountID {
			sum = sum.Add(p.Debit).Sub(p.Credit)
		}
	}
	return sum.String()
}

func (f *fixture) requireLedgerBalanced(t *testing.T) {
	t.Helper()
	dr, cr := decimal.Zero, decimal.Zero
	for _, p := range f.repo.state.postings {
		if !p.IsVoided {
			dr = dr.Add(p.Debit)
			cr = cr.Add(p.Credit)
		}
	}
	require.True(t, dr.Equal(cr), "debits %s credits %s", dr, cr)
}

func (f *fixture) billsOf(voucherID int64) []bills.Bill {
	list, _ := f.repo.ListBillsByVoucher(context.Background(), tenant, voucherID)
	return list
}

func TestPurchaseThenSale(t *testing.T) {
	f := newFixture(t)

	pb := f.post(t, purchase("10", "50"))
	require.Equal(t, accounting.StatusPosted, pb.Status)
	require.Equal(t, "PB-00001", pb.VoucherNumber)
	require.Equal(t, "2025-26", pb.FiscalYearKey)
	require.Equal(t, "590", pb.Totals.Net.String())
	require.Equal(t, "45", pb.Totals.Tax.CGST.String())
	require.Equal(t, "45", pb.Totals.Tax.SGST.String())
	require.Equal(t, "10", f.balance().OnHandQtyBase.String())
	require.Equal(t, "50", f.balance().AvgCost.String())

	si := f.post(t, sale("2", "100"))
	require.Equal(t, "SI-00001", si.VoucherNumber)
	require.Equal(t, "236", si.Totals.Net.String())
	require.Equal(t, "200", si.Totals.Tax.Taxable.String())
	require.Equal(t, "8", f.balance().OnHandQtyBase.String())
	require.Equal(t, "8", f.repo.state.available[balanceKey{product, 0}].String())
	require.Equal(t, "100", f.net(si.ID, accounts.CodeCOGS))
	require.Equal(t, "-100", f.net(si.ID, accounts.CodeInventory))
	require.Equal(t, "236", f.net(si.ID, "party"))

	receivable := f.billsOf(si.ID)
	require.Len(t, receivable, 1)
	require.Equal(t, bills.Receivable, receivable[0].BillType)
	require.Equal(t, "236", receivable[0].BalanceAmount.String())
	require.Equal(t, "SI-00001", receivable[0].BillNumber)
	require.Equal(t, voucherDate().AddDate(0, 0, 30), receivable[0].DueDate)

	f.requireLedgerBalanced(t)
	require.Equal(t, 2, f.notifier.bumps)
}

func TestReceiptSettlesOldestBill(t *testing.T) {
	f := newFixture(t)
	f.post(t, purchase("10", "50"))
	si := f.post(t, sale("2", "100"))

	rc := f.post(t, accounting.Payload{
		VoucherType:       accounting.VoucherReceipt,
		Date:              voucherDate(),
		PartyID:           partyID,
		CashBankAccountID: f.codes[accounts.CodeCash],
		Amount:            d("100"),
	})
	require.Equal(t, "RC-00001", rc.VoucherNumber)
	require.Len(t, rc.Meta.Allocations, 1)
	require.Equal(t, "100", rc.Meta.Allocations[0].Amount.String())

	bill := f.billsOf(si.ID)[0]
	require.Equal(t, "100", bill.SettledAmount.String())
	require.Equal(t, "136", bill.BalanceAmount.String())
	require.Equal(t, bills.StatusOpen, bill.Status)

	_, err := f.svc.Void(context.Background(), tenant, rc.ID, actor, "wrong party")
	require.NoError(t, err)
	bill = f.billsOf(si.ID)[0]
	require.Equal(t, "236", bill.BalanceAmount.String())
	require.True(t, bill.SettledAmount.IsZero())
	f.requireLedgerBalanced(t)
}

func TestVoidRestoresEveryArtifact(t *testing.T) {
	f := newFixture(t)
	f.post(t, purchase("10", "50"))
	si := f.post(t, sale("2", "100"))

	voided, err := f.svc.Void(context.Background(), tenant, si.ID, actor, "customer cancelled")
	require.NoError(t, err)
	require.Equal(t, accounting.StatusVoided, voided.Status)
	require.Equal(t, "customer cancelled", voided.VoidReason)
	require.NotNil(t, voided.VoidedAt)

	bal := f.balance()
	require.Equal(t, "10", bal.OnHandQtyBase.String())
	require.Equal(t, "500", bal.OnHandValue.String())
	require.Equal(t, "50", bal.AvgCost.String())

	require.Empty(t, f.activePostings(si.ID))
	for _, m := range f.repo.state.moves {
		if m.VoucherID == si.ID {
			require.True(t, m.IsVoided)
		}
	}
	require.Equal(t, bills.StatusVoided, f.billsOf(si.ID)[0].Status)
	f.requireLedgerBalanced(t)

	logs := len(f.repo.state.logs)
	bumps := f.notifier.bumps
	again, err := f.svc.Void(context.Background(), tenant, si.ID, actor, "twice")
	require.NoError(t, err)
	require.Equal(t, accounting.StatusVoided, again.Status)
	require.Equal(t, "customer cancelled", again.VoidReason)
	require.Len(t, f.repo.state.logs, logs)
	require.Equal(t, bumps, f.notifier.bumps)
}

func TestSameDayEditCreatesRevision(t *testing.T) {
	f := newFixture(t)
	f.post(t, purchase("10", "50"))
	si := f.post(t, sale("2", "100"))

	f.now = f.now.Add(8 * time.Hour)
	updated, err := f.svc.Update(context.Background(), tenant, si.ID, actor, sale("3", "100"))
	require.NoError(t, err)
	require.Equal(t, 2, updated.Revision)
	require.Equal(t, si.VoucherNumber, updated.VoucherNumber)
	require.Equal(t, "354", updated.Totals.Net.String())

	require.Equal(t, "7", f.balance().OnHandQtyBase.String())
	require.Equal(t, "150", f.net(si.ID, accounts.CodeCOGS))
	for _, p := range f.activePostings(si.ID) {
		require.Equal(t, 2, p.Revision)
	}
	var voided int
	for _, p := range f.repo.state.postings {
		if p.VoucherID == si.ID && p.IsVoided {
			require.Equal(t, 1, p.Revision)
			voided++
		}
	}
	require.NotZero(t, voided)

	var open, closed int
	for _, b := range f.billsOf(si.ID) {
		switch b.Status {
		case bills.StatusOpen:
			open++
			require.Equal(t, "354", b.BalanceAmount.String())
		case bills.StatusVoided:
			closed++
		}
	}
	require.Equal(t, 1, open)
	require.Equal(t, 1, closed)
	f.requireLedgerBalanced(t)

	logs, err := f.svc.ListLogs(context.Background(), tenant, si.ID, shared.PageRequest{})
	require.NoError(t, err)
	var actions []accounting.LogAction
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	require.Equal(t, []accounting.LogAction{accounting.LogCreated, accounting.LogPosted, accounting.LogUpdated}, actions)
	require.Equal(t, 1, logs[2].Before.Revision)
	require.Equal(t, 2, logs[2].After.Revision)
}

func TestEditWindowUsesCompanyTimezone(t *testing.T) {
	f := newFixture(t)
	f.post(t, purchase("10", "50"))
	si := f.post(t, sale("2", "100"))

	// 01:30 on 11 May in Kolkata, still 10 May in UTC.
	f.now = time.Date(2025, 5, 10, 20, 0, 0, 0, time.UTC)
	_, err := f.svc.Update(context.Background(), tenant, si.ID, actor, sale("3", "100"))
	require.ErrorIs(t, err, ErrEditWindowClosed)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Equal(t, "8", f.balance().OnHandQtyBase.String())
}

func TestInsufficientStockPersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.post(t, purchase("10", "50"))
	before := f.repo.state.clone()

	_, err := f.svc.Create(context.Background(), tenant, actor, sale("11", "100"), CreateOptions{Status: accounting.StatusPosted})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.ErrorIs(t, err, shared.ErrConflict)

	require.Equal(t, len(before.vouchers), len(f.repo.state.vouchers))
	require.Equal(t, len(before.postings), len(f.repo.state.postings))
	require.Equal(t, len(before.moves), len(f.repo.state.moves))
	require.Equal(t, len(before.logs), len(f.repo.state.logs))
	require.Equal(t, before.sequences, f.repo.state.sequences)
	require.Equal(t, "10", f.balance().OnHandQtyBase.String())

	last := f.metrics.ops[len(f.metrics.ops)-1]
	require.Equal(t, recordedOp{operation: "create", failed: true}, last)
}

func TestIdempotentCreateReturnsStoredVoucher(t *testing.T) {
	f := newFixture(t)
	p := purchase("10", "50")
	p.IdempotencyKey = "pb-2025-05-10-1"

	first := f.post(t, p)
	second := f.post(t, p)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.VoucherNumber, second.VoucherNumber)
	require.Len(t, f.repo.state.vouchers, 1)
	require.Equal(t, "10", f.balance().OnHandQtyBase.String())
	require.Equal(t, 1, f.notifier.bumps)
}

func TestDraftLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, purchase("10", "50"))

	draft, err := f.svc.Create(ctx, tenant, actor, sale("2", "100"), CreateOptions{})
	require.NoError(t, err)
	require.Equal(t, accounting.StatusDraft, draft.Status)
	require.Empty(t, draft.VoucherNumber)
	require.Equal(t, "236", draft.Totals.Net.String())
	require.Empty(t, f.activePostings(draft.ID))
	require.Equal(t, "10", f.balance().OnHandQtyBase.String())

	edited, err := f.svc.Update(ctx, tenant, draft.ID, actor, sale("4", "100"))
	require.NoError(t, err)
	require.Equal(t, 1, edited.Revision)
	require.Equal(t, "472", edited.Totals.Net.String())

	posted, err := f.svc.PostDraft(ctx, tenant, draft.ID, actor)
	require.NoError(t, err)
	require.Equal(t, accounting.StatusPosted, posted.Status)
	require.Equal(t, "SI-00001", posted.VoucherNumber)
	require.Equal(t, "6", f.balance().OnHandQtyBase.String())
	f.requireLedgerBalanced(t)

	_, err = f.svc.PostDraft(ctx, tenant, draft.ID, actor)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestVoidDraftSkipsReversal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, tenant, actor, purchase("1", "50"), CreateOptions{})
	require.NoError(t, err)
	voided, err := f.svc.Void(ctx, tenant, draft.ID, actor, "")
	require.NoError(t, err)
	require.Equal(t, accounting.StatusVoided, voided.Status)
	require.Zero(t, f.notifier.bumps)

	_, err = f.svc.Update(ctx, tenant, draft.ID, actor, purchase("2", "50"))
	require.ErrorIs(t, err, ErrVoucherVoided)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestPostedTypeCannotChange(t *testing.T) {
	f := newFixture(t)
	pb := f.post(t, purchase("10", "50"))
	_, err := f.svc.Update(context.Background(), tenant, pb.ID, actor, sale("1", "100"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMissingSystemAccountsIsIntegrityFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.accounts = f.repo.accounts[1:]
	_, err := f.svc.Create(context.Background(), tenant, actor, purchase("1", "50"), CreateOptions{Status: accounting.StatusPosted})
	require.ErrorIs(t, err, shared.ErrSystemIntegrity)
	require.Empty(t, f.repo.state.vouchers)
}

func TestUnknownPartyAndVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := purchase("1", "50")
	p.PartyID = 404
	_, err := f.svc.Create(ctx, tenant, actor, p, CreateOptions{Status: accounting.StatusPosted})
	require.ErrorIs(t, err, catalog.ErrPartyNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.Get(ctx, tenant, 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.svc.ListLogs(ctx, tenant, 404, shared.PageRequest{})
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.svc.Void(ctx, tenant, 404, actor, "")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNotifierFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("redis down")
	pb := f.post(t, purchase("10", "50"))
	require.Equal(t, accounting.StatusPosted, pb.Status)
	require.Equal(t, 1, f.notifier.bumps)
}

func TestRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), tenant, actor, purchase("1", "50"), CreateOptions{Status: accounting.StatusVoided})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestEditPurchaseAfterSale(t *testing.T) {
	f := newFixture(t)
	pb := f.post(t, purchase("10", "50"))
	f.post(t, sale("2", "100"))

	f.now = f.now.Add(2 * time.Hour)
	updated, err := f.svc.Update(context.Background(), tenant, pb.ID, actor, purchase("12", "50"))
	require.NoError(t, err)
	require.Equal(t, 2, updated.Revision)
	require.Equal(t, pb.VoucherNumber, updated.VoucherNumber)

	bal := f.balance()
	require.Equal(t, "10", bal.OnHandQtyBase.String())
	require.Equal(t, "500", bal.OnHandValue.String())
	require.Equal(t, "50", bal.AvgCost.String())
	require.Equal(t, "10", f.repo.state.available[balanceKey{product, 0}].String())
	require.Equal(t, "600", f.net(pb.ID, accounts.CodeInventory))

	var open []bills.Bill
	for _, b := range f.billsOf(pb.ID) {
		if b.Status == bills.StatusOpen {
			open = append(open, b)
		}
	}
	require.Len(t, open, 1)
	require.Equal(t, "708", open[0].BalanceAmount.String())
	f.requireLedgerBalanced(t)
}

func TestEditPurchaseBelowSoldQuantityConflicts(t *testing.T) {
	f := newFixture(t)
	pb := f.post(t, purchase("10", "50"))
	f.post(t, sale("8", "100"))
	before := f.repo.state.clone()

	_, err := f.svc.Update(context.Background(), tenant, pb.ID, actor, purchase("5", "50"))
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.ErrorIs(t, err, shared.ErrConflict)

	require.Equal(t, "2", f.balance().OnHandQtyBase.String())
	require.Equal(t, "100", f.balance().OnHandValue.String())
	require.Equal(t, len(before.postings), len(f.repo.state.postings))
	require.Equal(t, 1, f.repo.state.vouchers[pb.ID].Revision)
}

func TestVoidPurchaseAfterSaleConflicts(t *testing.T) {
	f := newFixture(t)
	pb := f.post(t, purchase("10", "50"))
	f.post(t, sale("2", "100"))

	_, err := f.svc.Void(context.Background(), tenant, pb.ID, actor, "duplicate")
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.Equal(t, accounting.StatusPosted, f.repo.state.vouchers[pb.ID].Status)
	require.Equal(t, "8", f.balance().OnHandQtyBase.String())
}

func TestVoidRestoresStateForEveryVoucherType(t *testing.T) {
	item := func(qty, rate string) []accounting.ItemLine {
		return []accounting.ItemLine{{ProductID: product, Quantity: d(qty), Rate: d(rate), TaxRate: d("18")}}
	}
	cases := []struct {
		name       string
		payload    func(f *fixture) accounting.Payload
		qty        string
		receivable string
		payable    string
	}{
		{
			name: "credit note with stock",
			payload: func(*fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherCreditNote, PartyID: partyID, UpdateStock: true,
					Lines: accounting.Lines{Items: item("1", "100")}}
			},
			qty: "9", receivable: "118", payable: "590",
		},
		{
			name: "debit note with stock",
			payload: func(*fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherDebitNote, PartyID: partyID, UpdateStock: true,
					Lines: accounting.Lines{Items: item("1", "50")}}
			},
			qty: "7", receivable: "236", payable: "531",
		},
		{
			name: "payment",
			payload: func(f *fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherPayment, PartyID: partyID,
					CashBankAccountID: f.codes[accounts.CodeBank], Amount: d("200")}
			},
			qty: "8", receivable: "236", payable: "390",
		},
		{
			name: "stock adjustment",
			payload: func(*fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherStockAdjustment,
					Lines: accounting.Lines{Items: []accounting.ItemLine{{ProductID: product, Adjustment: d("-3")}}}}
			},
			qty: "5", receivable: "236", payable: "590",
		},
		{
			name: "delivery challan",
			payload: func(*fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherDeliveryChallan, StockDirection: accounting.StockOut,
					Lines: accounting.Lines{Items: item("2", "100")}}
			},
			qty: "6", receivable: "236", payable: "590",
		},
		{
			name: "contra",
			payload: func(f *fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherContra, Amount: d("100"),
					FromAccountID: f.codes[accounts.CodeCash], ToAccountID: f.codes[accounts.CodeBank]}
			},
			qty: "8", receivable: "236", payable: "590",
		},
		{
			name: "journal",
			payload: func(f *fixture) accounting.Payload {
				return accounting.Payload{VoucherType: accounting.VoucherJournal, Lines: accounting.Lines{Journal: []accounting.JournalLine{
					{AccountID: f.codes[accounts.CodeCash], Debit: d("100")},
					{AccountID: f.codes[accounts.CodeOpeningEquity], Credit: d("100")},
				}}}
			},
			qty: "8", receivable: "236", payable: "590",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			pb := f.post(t, purchase("10", "50"))
			si := f.post(t, sale("2", "100"))
			billBalance := func(voucherID int64) string {
				return f.billsOf(voucherID)[0].BalanceAmount.String()
			}

			p := tc.payload(f)
			p.Date = voucherDate()
			v := f.post(t, p)
			require.Equal(t, tc.qty, f.balance().OnHandQtyBase.String())
			require.Equal(t, tc.receivable, billBalance(si.ID))
			require.Equal(t, tc.payable, billBalance(pb.ID))
			f.requireLedgerBalanced(t)

			_, err := f.svc.Void(context.Background(), tenant, v.ID, actor, "entered in error")
			require.NoError(t, err)
			require.Empty(t, f.activePostings(v.ID))
			bal := f.balance()
			require.Equal(t, "8", bal.OnHandQtyBase.String())
			require.Equal(t, "400", bal.OnHandValue.String())
			require.Equal(t, "50", bal.AvgCost.String())
			require.Equal(t, "236", billBalance(si.ID))
			require.Equal(t, "590", billBalance(pb.ID))
			f.requireLedgerBalanced(t)
		})
	}
}
