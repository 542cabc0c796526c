package bills

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Store persists bills. The ForUpdate reads must lock the returned rows until
// the surrounding transaction ends.
type Store interface {
	InsertBill(ctx context.Context, bill *Bill) error
	ListOpenBillsForUpdate(ctx context.Context, tenantID, partyID int64, billType BillType) ([]Bill, error)
	GetBillForUpdate(ctx context.Context, tenantID, billID int64) (Bill, error)
	UpdateBill(ctx context.Context, bill Bill) error
	ListBillsByVoucher(ctx context.Context, tenantID, voucherID int64) ([]Bill, error)
}

// Create raises a new open bill for its full amount.
func Create(ctx context.Context, st Store, bill Bill) (Bill, error) {
	bill.TotalAmount = shared.Round2(bill.TotalAmount)
	if !bill.TotalAmount.IsPositive() {
		return Bill{}, shared.Wrap(shared.ErrValidation, "bills.create", ErrInvalidAmount)
	}
	bill.SettledAmount = decimal.Zero
	bill.BalanceAmount = bill.TotalAmount
	bill.Status = StatusOpen
	if bill.DueDate.IsZero() {
		bill.DueDate = bill.BillDate
	}
	if err := st.InsertBill(ctx, &bill); err != nil {
		return Bill{}, fmt.Errorf("bills: insert: %w", err)
	}
	return bill, nil
}

// SettleFIFO applies amount to the oldest open bills of the party, ordered by
// due date, bill date and creation time. It returns the allocations made and
// any amount left unapplied.
func SettleFIFO(ctx context.Context, st Store, tenantID, partyID int64, billType BillType, amount decimal.Decimal) ([]accounting.Allocation, decimal.Decimal, error) {
	remaining := shared.Round2(amount)
	if !remaining.IsPositive() {
		return nil, decimal.Zero, shared.Wrap(shared.ErrValidation, "bills.settle", ErrInvalidAmount)
	}
	open, err := st.ListOpenBillsForUpdate(ctx, tenantID, partyID, billType)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("bills: list open: %w", err)
	}
	sortFIFO(open)

	var allocations []accounting.Allocation
	for _, bill := range open {
		if !remaining.IsPositive() {
			break
		}
		if bill.Status != StatusOpen || !bill.BalanceAmount.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, bill.BalanceAmount)
		bill.SettledAmount = bill.SettledAmount.Add(applied)
		bill.BalanceAmount = bill.BalanceAmount.Sub(applied)
		if bill.BalanceAmount.IsZero() {
			bill.Status = StatusClosed
		}
		if err := st.UpdateBill(ctx, bill); err != nil {
			return nil, decimal.Zero, fmt.Errorf("bills: update: %w", err)
		}
		allocations = append(allocations, accounting.Allocation{BillID: bill.ID, Amount: applied})
		remaining = remaining.Sub(applied)
	}
	return allocations, remaining, nil
}

// ReverseSettlements gives each allocation back to its bill and reopens bills
// that have a balance again. Voided bills stay voided.
func ReverseSettlements(ctx context.Context, st Store, tenantID int64, allocations []accounting.Allocation) error {
	for _, alloc := range allocations {
		bill, err := st.GetBillForUpdate(ctx, tenantID, alloc.BillID)
		if err != nil {
			return fmt.Errorf("bills: load %d: %w", alloc.BillID, err)
		}
		bill.SettledAmount = shared.MaxZero(bill.SettledAmount.Sub(alloc.Amount))
		bill.BalanceAmount = bill.BalanceAmount.Add(alloc.Amount)
		if bill.BalanceAmount.GreaterThan(bill.TotalAmount) {
			bill.BalanceAmount = bill.TotalAmount
		}
		if bill.Status == StatusClosed && bill.BalanceAmount.IsPositive() {
			bill.Status = StatusOpen
		}
		if err := st.UpdateBill(ctx, bill); err != nil {
			return fmt.Errorf("bills: update: %w", err)
		}
	}
	return nil
}

// VoidByVoucher voids every bill raised by the voucher.
func VoidByVoucher(ctx context.Context, st Store, tenantID, voucherID int64) error {
	list, err := st.ListBillsByVoucher(ctx, tenantID, voucherID)
	if err != nil {
		return fmt.Errorf("bills: list by voucher: %w", err)
	}
	for _, bill := range list {
		if bill.Status == StatusVoided {
			continue
		}
		bill.Status = StatusVoided
		if err := st.UpdateBill(ctx, bill); err != nil {
			return fmt.Errorf("bills: update: %w", err)
		}
	}
	return nil
}

func sortFIFO(list []Bill) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.BillDate.Equal(b.BillDate) {
			return a.BillDate.Before(b.BillDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
