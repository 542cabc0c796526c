package bills

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

type memoryStore struct {
	bills  map[int64]Bill
	nextID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{bills: make(map[int64]Bill)}
}

func (s *memoryStore) InsertBill(_ context.Context, b *Bill) error {
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = time.Date(2025, 5, 1, 0, 0, int(s.nextID), 0, time.UTC)
	s.bills[b.ID] = *b
	return nil
}

// ListOpenBillsForUpdate returns bills in reverse insertion order so the
// engine's own ordering is exercised.
func (s *memoryStore) ListOpenBillsForUpdate(_ context.Context, tenantID, partyID int64, billType BillType) ([]Bill, error) {
	var out []Bill
	for id := s.nextID; id > 0; id-- {
		b, ok := s.bills[id]
		if ok && b.TenantID == tenantID && b.PartyID == partyID && b.BillType == billType && b.Status == StatusOpen {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memoryStore) GetBillForUpdate(_ context.Context, tenantID, billID int64) (Bill, error) {
	b, ok := s.bills[billID]
	if !ok || b.TenantID != tenantID {
		return Bill{}, ErrBillNotFound
	}
	return b, nil
}

func (s *memoryStore) UpdateBill(_ context.Context, b Bill) error {
	if _, ok := s.bills[b.ID]; !ok {
		return ErrBillNotFound
	}
	s.bills[b.ID] = b
	return nil
}

func (s *memoryStore) ListBillsByVoucher(_ context.Context, tenantID, voucherID int64) ([]Bill, error) {
	var out []Bill
	for id := int64(1); id <= s.nextID; id++ {
		if b, ok := s.bills[id]; ok && b.TenantID == tenantID && b.VoucherID == voucherID {
			out = append(out, b)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func seed(t *testing.T, st *memoryStore, voucherID int64, due time.Time, amount string) Bill {
	t.Helper()
	b, err := Create(context.Background(), st, Bill{
		TenantID: 1, PartyID: 9, VoucherID: voucherID, BillType: Receivable,
		BillDate: day(1), DueDate: due, TotalAmount: dec(amount),
	})
	require.NoError(t, err)
	return b
}

func TestSettleFIFOOldestDueFirst(t *testing.T) {
	st := newMemoryStore()
	ctx := context.Background()
	late := seed(t, st, 1, day(20), "100")
	early := seed(t, st, 2, day(10), "50")

	allocs, rest, err := SettleFIFO(ctx, st, 1, 9, Receivable, dec("80"))
	require.NoError(t, err)
	require.True(t, rest.IsZero())
	require.Len(t, allocs, 2)
	require.Equal(t, early.ID, allocs[0].BillID)
	require.Equal(t, "50", allocs[0].Amount.String())
	require.Equal(t, late.ID, allocs[1].BillID)
	require.Equal(t, "30", allocs[1].Amount.String())

	require.Equal(t, StatusClosed, st.bills[early.ID].Status)
	require.True(t, st.bills[early.ID].BalanceAmount.IsZero())
	require.Equal(t, StatusOpen, st.bills[late.ID].Status)
	require.Equal(t, "70", st.bills[late.ID].BalanceAmount.String())
	require.Equal(t, "30", st.bills[late.ID].SettledAmount.String())
}

func TestSettleFIFOReturnsUnappliedRemainder(t *testing.T) {
	st := newMemoryStore()
	seed(t, st, 1, day(10), "40")

	allocs, rest, err := SettleFIFO(context.Background(), st, 1, 9, Receivable, dec("55.5"))
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	require.Equal(t, "15.5", rest.String())

	allocs, rest, err = SettleFIFO(context.Background(), st, 1, 9, Payable, dec("10"))
	require.NoError(t, err)
	require.Empty(t, allocs)
	require.Equal(t, "10", rest.String())
}

func TestSettleRejectsNonPositiveAmount(t *testing.T) {
	_, _, err := SettleFIFO(context.Background(), newMemoryStore(), 1, 9, Receivable, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestReverseSettlementsReopensBills(t *testing.T) {
	st := newMemoryStore()
	ctx := context.Background()
	a := seed(t, st, 1, day(10), "50")
	b := seed(t, st, 2, day(11), "50")

	allocs, _, err := SettleFIFO(ctx, st, 1, 9, Receivable, dec("70"))
	require.NoError(t, err)
	require.NoError(t, ReverseSettlements(ctx, st, 1, allocs))

	for _, id := range []int64{a.ID, b.ID} {
		bill := st.bills[id]
		require.Equal(t, StatusOpen, bill.Status)
		require.Equal(t, "50", bill.BalanceAmount.String())
		require.True(t, bill.SettledAmount.IsZero())
	}
}

func TestVoidByVoucherKeepsVoidedBillsVoided(t *testing.T) {
	st := newMemoryStore()
	ctx := context.Background()
	bill := seed(t, st, 5, day(10), "236")
	other := seed(t, st, 6, day(10), "10")

	allocs, _, err := SettleFIFO(ctx, st, 1, 9, Receivable, dec("100"))
	require.NoError(t, err)
	require.NoError(t, VoidByVoucher(ctx, st, 1, 5))
	require.Equal(t, StatusVoided, st.bills[bill.ID].Status)
	require.Equal(t, StatusOpen, st.bills[other.ID].Status)

	require.NoError(t, ReverseSettlements(ctx, st, 1, allocs))
	require.Equal(t, StatusVoided, st.bills[bill.ID].Status)
	require.Equal(t, "236", st.bills[bill.ID].BalanceAmount.String())

	allocs, _, err = SettleFIFO(ctx, st, 1, 9, Receivable, dec("5"))
	require.NoError(t, err)
	require.Equal(t, other.ID, allocs[0].BillID)
}

func TestCreateDefaultsDueDate(t *testing.T) {
	st := newMemoryStore()
	b, err := Create(context.Background(), st, Bill{TenantID: 1, PartyID: 9, BillType: Payable, BillDate: day(3), TotalAmount: dec("10.005")})
	require.NoError(t, err)
	require.Equal(t, day(3), b.DueDate)
	require.Equal(t, "10.01", b.TotalAmount.String())
	require.Equal(t, StatusOpen, b.Status)

	_, err = Create(context.Background(), st, Bill{TenantID: 1, TotalAmount: dec("-1")})
	require.ErrorIs(t, err, shared.ErrValidation)
}
