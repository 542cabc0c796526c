package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// ErrAccountNotFound indicates the account does not exist for the tenant.
var ErrAccountNotFound = errors.New("accounts: account not found")

// Store reads and writes chart of accounts rows through a pool or transaction.
type Store struct {
	q db.DBTX
}

// NewStore constructs Store.
func NewStore(q db.DBTX) *Store {
	return &Store{q: q}
}

const accountColumns = `id, tenant_id, code, name, type, account_group, is_system, opening_amount, opening_drcr, is_deleted, created_at, updated_at`

// ListAccounts returns all active accounts of the tenant ordered by code.
func (s *Store) ListAccounts(ctx context.Context, tenantID int64) ([]accounting.Account, error) {
	rows, err := s.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND NOT is_deleted ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []accounting.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount loads one account of the tenant.
func (s *Store) GetAccount(ctx context.Context, tenantID, id int64) (accounting.Account, error) {
	row := s.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounting.Account{}, ErrAccountNotFound
		}
		return accounting.Account{}, err
	}
	return a, nil
}

// InsertSystemAccounts inserts any missing system account and returns how many were created.
func (s *Store) InsertSystemAccounts(ctx context.Context, tenantID int64, list []SystemAccount) (int, error) {
	created := 0
	for _, sa := range list {
		tag, err := s.q.Exec(ctx, `INSERT INTO accounts (tenant_id, code, name, type, account_group, is_system)
VALUES ($1,$2,$3,$4,$5,TRUE) ON CONFLICT (tenant_id, code) DO NOTHING`, tenantID, sa.Code, sa.Name, string(sa.Type), sa.Group)
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// SoftDelete flags a non-system account as deleted.
func (s *Store) SoftDelete(ctx context.Context, tenantID, id int64) error {
	tag, err := s.q.Exec(ctx, `UPDATE accounts SET is_deleted=TRUE, updated_at=NOW() WHERE tenant_id=$1 AND id=$2 AND NOT is_system`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Rename changes the display name of a non-system account.
func (s *Store) Rename(ctx context.Context, tenantID, id int64, name string) error {
	tag, err := s.q.Exec(ctx, `UPDATE accounts SET name=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2 AND NOT is_system`, tenantID, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (accounting.Account, error) {
	var (
		a      accounting.Account
		amount decimal.NullDecimal
		drcr   *string
	)
	if err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Group, &a.IsSystem, &amount, &drcr, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return accounting.Account{}, err
	}
	if amount.Valid && drcr != nil {
		a.OpeningBalance = &accounting.OpeningBalance{Amount: amount.Decimal, DrCr: accounting.DrCr(*drcr)}
	}
	return a, nil
}
