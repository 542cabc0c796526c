package vouchers

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/catalog"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/sequence"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

type balanceKey struct {
	product, variant int64
}

type memoryState struct {
	balances  map[balanceKey]inventory.Balance
	available map[balanceKey]decimal.Decimal
	bills     map[int64]bills.Bill
	sequences map[sequence.Key]int64
	vouchers  map[int64]accounting.Voucher
	postings  []accounting.LedgerPosting
	moves     []inventory.StockMove
	logs      []accounting.VoucherLog
	nextID    int64
}

func (s memoryState) clone() memoryState {
	return memoryState{
		balances:  maps.Clone(s.balances),
		available: maps.Clone(s.available),
		bills:     maps.Clone(s.bills),
		sequences: maps.Clone(s.sequences),
		vouchers:  maps.Clone(s.vouchers),
		postings:  slices.Clone(s.postings),
		moves:     slices.Clone(s.moves),
		logs:      slices.Clone(s.logs),
		nextID:    s.nextID,
	}
}

// memoryRepo is a single-tenant in-memory repository. A failed transaction
// restores the state captured when it began.
type memoryRepo struct {
	mu       sync.Mutex
	company  catalog.Company
	parties  map[int64]catalog.Party
	units    []catalog.Unit
	accounts []accounting.Account
	state    memoryState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		parties: make(map[int64]catalog.Party),
		state: memoryState{
			balances:  make(map[balanceKey]inventory.Balance),
			available: make(map[balanceKey]decimal.Decimal),
			bills:     make(map[int64]bills.Bill),
			sequences: make(map[sequence.Key]int64),
			vouchers:  make(map[int64]accounting.Voucher),
		},
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.state.clone()
	if err := fn(ctx, r); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) GetVoucher(_ context.Context, tenantID, voucherID int64) (accounting.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.GetVoucherForUpdate(context.Background(), tenantID, voucherID)
}

func (r *memoryRepo) ListLogs(_ context.Context, _ int64, voucherID int64, page shared.PageRequest) ([]accounting.VoucherLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []accounting.VoucherLog
	for _, l := range r.state.logs {
		if l.VoucherID == voucherID {
			out = append(out, l)
		}
	}
	start := min(page.Offset(), len(out))
	end := min(start+page.PerPage, len(out))
	return out[start:end], nil
}

func (r *memoryRepo) id() int64 {
	r.state.nextID++
	return r.state.nextID
}

func (r *memoryRepo) GetCompany(_ context.Context, tenantID int64) (catalog.Company, error) {
	if tenantID != r.company.ID {
		return catalog.Company{}, catalog.ErrCompanyNotFound
	}
	return r.company, nil
}

func (r *memoryRepo) GetParty(_ context.Context, _ int64, partyID int64) (catalog.Party, error) {
	p, ok := r.parties[partyID]
	if !ok {
		return catalog.Party{}, catalog.ErrPartyNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListUnits(context.Context, int64) ([]catalog.Unit, error) {
	return r.units, nil
}

func (r *memoryRepo) ListAccounts(context.Context, int64) ([]accounting.Account, error) {
	return r.accounts, nil
}

func (r *memoryRepo) LockBalance(_ context.Context, tenantID, productID, variantID int64) (inventory.Balance, error) {
	if b, ok := r.state.balances[balanceKey{productID, variantID}]; ok {
		return b, nil
	}
	return inventory.Balance{TenantID: tenantID, ProductID: productID, VariantID: variantID}, nil
}

func (r *memoryRepo) SaveBalance(_ context.Context, b inventory.Balance) error {
	r.state.balances[balanceKey{b.ProductID, b.VariantID}] = b
	return nil
}

func (r *memoryRepo) RefreshAvailability(_ context.Context, b inventory.Balance) error {
	r.state.available[balanceKey{b.ProductID, b.VariantID}] = b.OnHandQtyBase
	return nil
}

func (r *memoryRepo) InsertBill(_ context.Context, b *bills.Bill) error {
	b.ID = r.id()
	r.state.bills[b.ID] = *b
	return nil
}

func (r *memoryRepo) ListOpenBillsForUpdate(_ context.Context, _ int64, partyID int64, billType bills.BillType) ([]bills.Bill, error) {
	var out []bills.Bill
	for _, b := range r.state.bills {
		if b.PartyID == partyID && b.BillType == billType && b.Status == bills.StatusOpen && b.BalanceAmount.IsPositive() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetBillForUpdate(_ context.Context, _ int64, billID int64) (bills.Bill, error) {
	b, ok := r.state.bills[billID]
	if !ok {
		return bills.Bill{}, bills.ErrBillNotFound
	}
	return b, nil
}

func (r *memoryRepo) UpdateBill(_ context.Context, b bills.Bill) error {
	r.state.bills[b.ID] = b
	return nil
}

func (r *memoryRepo) ListBillsByVoucher(_ context.Context, _ int64, voucherID int64) ([]bills.Bill, error) {
	var out []bills.Bill
	for _, b := range r.state.bills {
		if b.VoucherID == voucherID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memoryRepo) Reserve(_ context.Context, key sequence.Key) (int64, error) {
	r.state.sequences[key]++
	return r.state.sequences[key], nil
}

func (r *memoryRepo) FindVoucherByIdempotencyKey(_ context.Context, tenantID int64, key string) (accounting.Voucher, error) {
	for _, v := range r.state.vouchers {
		if v.TenantID == tenantID && v.IdempotencyKey == key {
			return v, nil
		}
	}
	return accounting.Voucher{}, ErrVoucherNotFound
}

func (r *memoryRepo) GetVoucherForUpdate(_ context.Context, tenantID, voucherID int64) (accounting.Voucher, error) {
	v, ok := r.state.vouchers[voucherID]
	if !ok || v.TenantID != tenantID {
		return accounting.Voucher{}, ErrVoucherNotFound
	}
	return v, nil
}

func (r *memoryRepo) InsertVoucher(ctx context.Context, v *accounting.Voucher) error {
	if v.IdempotencyKey != "" {
		if _, err := r.FindVoucherByIdempotencyKey(ctx, v.TenantID, v.IdempotencyKey); err == nil {
			return ErrDuplicateIdempotencyKey
		}
	}
	v.ID = r.id()
	r.state.vouchers[v.ID] = *v
	return nil
}

func (r *memoryRepo) UpdateVoucher(_ context.Context, v accounting.Voucher) error {
	if _, ok := r.state.vouchers[v.ID]; !ok {
		return ErrVoucherNotFound
	}
	r.state.vouchers[v.ID] = v
	return nil
}

func (r *memoryRepo) InsertPostings(_ context.Context, postings []accounting.LedgerPosting) error {
	for _, p := range postings {
		p.ID = r.id()
		r.state.postings = append(r.state.postings, p)
	}
	return nil
}

func (r *memoryRepo) VoidPostings(_ context.Context, _ int64, voucherID int64, at time.Time) error {
	for i, p := range r.state.postings {
		if p.VoucherID == voucherID && !p.IsVoided {
			r.state.postings[i].IsVoided = true
			r.state.postings[i].VoidedAt = &at
		}
	}
	return nil
}

func (r *memoryRepo) InsertStockMoves(_ context.Context, moves []inventory.StockMove) error {
	for i := range moves {
		moves[i].ID = r.id()
		r.state.moves = append(r.state.moves, moves[i])
	}
	return nil
}

func (r *memoryRepo) ListActiveStockMoves(_ context.Context, _ int64, voucherID int64) ([]inventory.StockMove, error) {
	var out []inventory.StockMove
	for _, m := range r.state.moves {
		if m.VoucherID == voucherID && !m.IsVoided {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) VoidStockMoves(_ context.Context, _ int64, voucherID int64, at time.Time) error {
	for i, m := range r.state.moves {
		if m.VoucherID == voucherID && !m.IsVoided {
			r.state.moves[i].IsVoided = true
			r.state.moves[i].VoidedAt = &at
		}
	}
	return nil
}

func (r *memoryRepo) InsertLog(_ context.Context, l *accounting.VoucherLog) error {
	l.ID = r.id()
	r.state.logs = append(r.state.logs, *l)
	return nil
}
