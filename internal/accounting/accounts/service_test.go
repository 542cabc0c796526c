package accounts

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	accounts map[int64][]accounting.Account
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64][]accounting.Account)}
}

func (r *memoryRepo) ListAccounts(ctx context.Context, tenantID int64) ([]accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []accounting.Account
	for _, a := range r.accounts[tenantID] {
		if !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetAccount(ctx context.Context, tenantID, id int64) (accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts[tenantID] {
		if a.ID == id {
			return a, nil
		}
	}
	return accounting.Account{}, ErrAccountNotFound
}

func (r *memoryRepo) InsertSystemAccounts(ctx context.Context, tenantID int64, list []SystemAccount) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]bool)
	for _, a := range r.accounts[tenantID] {
		existing[a.Code] = true
	}
	created := 0
	for _, sa := range list {
		if existing[sa.Code] {
			continue
		}
		r.nextID++
		r.accounts[tenantID] = append(r.accounts[tenantID], accounting.Account{
			ID: r.nextID, TenantID: tenantID, Code: sa.Code, Name: sa.Name, Type: sa.Type, Group: sa.Group, IsSystem: true,
		})
		created++
	}
	return created, nil
}

func (r *memoryRepo) add(a accounting.Account) accounting.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.accounts[a.TenantID] = append(r.accounts[a.TenantID], a)
	return a
}

func (r *memoryRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.accounts[tenantID] {
		if a.ID == id {
			r.accounts[tenantID][i].IsDeleted = true
			return nil
		}
	}
	return ErrAccountNotFound
}

func (r *memoryRepo) Rename(ctx context.Context, tenantID, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.accounts[tenantID] {
		if a.ID == id {
			r.accounts[tenantID][i].Name = name
			return nil
		}
	}
	return ErrAccountNotFound
}

func TestProvisionIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Provision(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, len(SystemAccounts()), created)

	created, err = svc.Provision(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, created)

	chart, err := svc.Chart(ctx, 1)
	require.NoError(t, err)
	cash, err := chart.Require(CodeCash)
	require.NoError(t, err)
	require.True(t, cash.IsSystem)
}

func TestChartReportsMissingSystemAccounts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.Chart(context.Background(), 9)
	require.ErrorIs(t, err, shared.ErrSystemIntegrity)

	chart := NewChart(9, nil)
	_, err = chart.ID(CodeSales)
	require.ErrorIs(t, err, shared.ErrSystemIntegrity)
	require.Len(t, chart.Missing(), len(SystemAccounts()))
}

func TestSystemAccountsAreImmutable(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	_, err := svc.Provision(ctx, 1)
	require.NoError(t, err)
	chart, err := svc.Chart(ctx, 1)
	require.NoError(t, err)
	sales, err := chart.Require(CodeSales)
	require.NoError(t, err)

	err = svc.Delete(ctx, 1, sales.ID)
	require.ErrorIs(t, err, ErrSystemAccountImmutable)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.ErrorIs(t, svc.Rename(ctx, 1, sales.ID, "Revenue"), ErrSystemAccountImmutable)

	custom := repo.add(accounting.Account{TenantID: 1, Code: "4100", Name: "Services", Type: accounting.AccountTypeIncome})
	require.NoError(t, svc.Rename(ctx, 1, custom.ID, "Consulting"))
	require.NoError(t, svc.Delete(ctx, 1, custom.ID))
	require.ErrorIs(t, svc.Delete(ctx, 1, custom.ID), shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 2, custom.ID), shared.ErrNotFound)
}
