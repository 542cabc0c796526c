package bills

import (
	"context"

	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

const billColumns = `id, tenant_id, party_id, voucher_id, bill_type, bill_number, bill_date, due_date,
	total_amount, settled_amount, balance_amount, status, created_at, updated_at`

// PGStore persists bills in PostgreSQL.
type PGStore struct {
	q db.DBTX
}

// NewPGStore constructs PGStore.
func NewPGStore(q db.DBTX) *PGStore {
	return &PGStore{q: q}
}

// InsertBill stores a new bill and assigns its ID.
func (s *PGStore) InsertBill(ctx context.Context, b *Bill) error {
	return s.q.QueryRow(ctx, `INSERT INTO accounting_bills
(tenant_id, party_id, voucher_id, bill_type, bill_number, bill_date, due_date, total_amount, settled_amount, balance_amount, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, created_at, updated_at`,
		b.TenantID, b.PartyID, b.VoucherID, b.BillType, b.BillNumber, b.BillDate, b.DueDate,
		b.TotalAmount, b.SettledAmount, b.BalanceAmount, b.Status).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// ListOpenBillsForUpdate locks the open bills of a party in settlement order.
func (s *PGStore) ListOpenBillsForUpdate(ctx context.Context, tenantID, partyID int64, billType BillType) ([]Bill, error) {
	return s.list(ctx, `SELECT `+billColumns+` FROM accounting_bills
WHERE tenant_id=$1 AND party_id=$2 AND bill_type=$3 AND status='open' AND balance_amount > 0
ORDER BY due_date, bill_date, created_at, id FOR UPDATE`, tenantID, partyID, billType)
}

// GetBillForUpdate locks one bill.
func (s *PGStore) GetBillForUpdate(ctx context.Context, tenantID, billID int64) (Bill, error) {
	list, err := s.list(ctx, `SELECT `+billColumns+` FROM accounting_bills WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, billID)
	if err != nil {
		return Bill{}, err
	}
	if len(list) == 0 {
		return Bill{}, ErrBillNotFound
	}
	return list[0], nil
}

// UpdateBill writes settlement amounts and status.
func (s *PGStore) UpdateBill(ctx context.Context, b Bill) error {
	tag, err := s.q.Exec(ctx, `UPDATE accounting_bills SET settled_amount=$3, balance_amount=$4, status=$5, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, b.TenantID, b.ID, b.SettledAmount, b.BalanceAmount, b.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

// ListBillsByVoucher returns the bills raised by a voucher.
func (s *PGStore) ListBillsByVoucher(ctx context.Context, tenantID, voucherID int64) ([]Bill, error) {
	return s.list(ctx, `SELECT `+billColumns+` FROM accounting_bills WHERE tenant_id=$1 AND voucher_id=$2 ORDER BY id FOR UPDATE`, tenantID, voucherID)
}

func (s *PGStore) list(ctx context.Context, sql string, args ...any) ([]Bill, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.TenantID, &b.PartyID, &b.VoucherID, &b.BillType, &b.BillNumber, &b.BillDate, &b.DueDate,
			&b.TotalAmount, &b.SettledAmount, &b.BalanceAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
