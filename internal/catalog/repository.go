package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// Store reads master data through a pool or transaction.
type Store struct {
	q db.DBTX
}

// NewStore constructs Store.
func NewStore(q db.DBTX) *Store {
	return &Store{q: q}
}

// GetCompany loads the settings of the tenant company.
func (s *Store) GetCompany(ctx context.Context, tenantID int64) (Company, error) {
	var c Company
	err := s.q.QueryRow(ctx, `SELECT id, name, fiscal_year_start_month, timezone, currency, headquarters, allow_negative_stock, COALESCE(voucher_prefixes, '{}'::jsonb)
FROM companies WHERE id=$1`, tenantID).
		Scan(&c.ID, &c.Name, &c.FiscalYearStartMonth, &c.Timezone, &c.Currency, &c.Headquarters, &c.AllowNegativeStock, &c.VoucherPrefixes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, err
	}
	return c, nil
}

// GetParty loads an active party of the tenant.
func (s *Store) GetParty(ctx context.Context, tenantID, partyID int64) (Party, error) {
	var p Party
	err := s.q.QueryRow(ctx, `SELECT id, tenant_id, name, kind, ledger_account_id, credit_days_default, COALESCE(tax_id, ''), address, is_deleted
FROM parties WHERE tenant_id=$1 AND id=$2`, tenantID, partyID).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.Kind, &p.LedgerAccountID, &p.CreditDaysDefault, &p.TaxID, &p.Address, &p.IsDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Party{}, ErrPartyNotFound
		}
		return Party{}, err
	}
	if p.IsDeleted {
		return Party{}, ErrPartyNotFound
	}
	return p, nil
}

// ListUnits returns the unit catalog of the tenant.
func (s *Store) ListUnits(ctx context.Context, tenantID int64) ([]Unit, error) {
	rows, err := s.q.Query(ctx, `SELECT id, name, symbol, conversion_factor FROM units WHERE tenant_id=$1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Symbol, &u.ConversionFactor); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
