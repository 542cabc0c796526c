package sequence

import (
	"context"

	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// PGStore implements Store with a single upsert so concurrent posts never
// read the same value.
type PGStore struct {
	q db.DBTX
}

// NewPGStore constructs PGStore.
func NewPGStore(q db.DBTX) *PGStore {
	return &PGStore{q: q}
}

// Reserve implements Store.
func (s *PGStore) Reserve(ctx context.Context, key Key) (int64, error) {
	var n int64
	err := s.q.QueryRow(ctx, `INSERT INTO accounting_sequences (tenant_id, fiscal_year_key, voucher_type, next_value)
VALUES ($1, $2, $3, 2)
ON CONFLICT (tenant_id, fiscal_year_key, voucher_type)
DO UPDATE SET next_value = accounting_sequences.next_value + 1, updated_at = NOW()
RETURNING next_value - 1`, key.TenantID, key.FiscalYearKey, key.VoucherType).Scan(&n)
	return n, err
}
