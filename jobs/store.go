package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/inventory"
)

// PGStore backs the jobs with PostgreSQL.
type PGStore struct {
	pool      *pgxpool.Pool
	inventory *inventory.PGStore
}

// NewPGStore constructs PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, inventory: inventory.NewPGStore(pool)}
}

// ListTenants returns every company id.
func (s *PGStore) ListTenants(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UnbalancedVouchers lists posted vouchers whose active postings do not net to zero.
func (s *PGStore) UnbalancedVouchers(ctx context.Context, tenantID int64) ([]Finding, error) {
	return s.findings(ctx, FindingUnbalanced, `SELECT v.id, v.revision, COALESCE(v.voucher_number, ''), SUM(p.debit), SUM(p.credit)
FROM vouchers v
JOIN ledger_postings p ON p.tenant_id = v.tenant_id AND p.voucher_id = v.id AND NOT p.is_voided
WHERE v.tenant_id = $1 AND v.status = 'posted'
GROUP BY v.id, v.revision, v.voucher_number
HAVING SUM(p.debit) <> SUM(p.credit)
ORDER BY v.id`, tenantID)
}

// OrphanedPostings lists vouchers holding active postings that belong to a
// draft, a voided voucher or a superseded revision.
func (s *PGStore) OrphanedPostings(ctx context.Context, tenantID int64) ([]Finding, error) {
	return s.findings(ctx, FindingOrphaned, `SELECT v.id, v.revision, COALESCE(v.voucher_number, ''), SUM(p.debit), SUM(p.credit)
FROM vouchers v
JOIN ledger_postings p ON p.tenant_id = v.tenant_id AND p.voucher_id = v.id AND NOT p.is_voided
WHERE v.tenant_id = $1 AND (v.status <> 'posted' OR p.revision <> v.revision)
GROUP BY v.id, v.revision, v.voucher_number
ORDER BY v.id`, tenantID)
}

func (s *PGStore) findings(ctx context.Context, kind FindingKind, sql string, tenantID int64) ([]Finding, error) {
	rows, err := s.pool.Query(ctx, sql, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Finding
	for rows.Next() {
		f := Finding{Kind: kind, TenantID: tenantID}
		if err := rows.Scan(&f.VoucherID, &f.Revision, &f.VoucherNumber, &f.Debit, &f.Credit); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListBalances returns the inventory balances of a tenant.
func (s *PGStore) ListBalances(ctx context.Context, tenantID int64) ([]inventory.Balance, error) {
	return s.inventory.ListBalances(ctx, tenantID)
}

// RefreshAvailability rewrites the availability snapshot of one balance.
func (s *PGStore) RefreshAvailability(ctx context.Context, b inventory.Balance) error {
	return s.inventory.RefreshAvailability(ctx, b)
}
