package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Repository abstracts chart of accounts persistence.
type Repository interface {
	ListAccounts(ctx context.Context, tenantID int64) ([]accounting.Account, error)
	GetAccount(ctx context.Context, tenantID, id int64) (accounting.Account, error)
	InsertSystemAccounts(ctx context.Context, tenantID int64, list []SystemAccount) (int, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
	Rename(ctx context.Context, tenantID, id int64, name string) error
}

// Service provisions and guards the chart of accounts.
type Service struct {
	repo   Repository
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Provision creates the system accounts a tenant is missing. Concurrent calls
// for the same tenant share one round trip.
func (s *Service) Provision(ctx context.Context, tenantID int64) (int, error) {
	if tenantID == 0 {
		return 0, shared.Validation("accounts.provision", "tenant required")
	}
	v, err, _ := s.group.Do(strconv.FormatInt(tenantID, 10), func() (any, error) {
		return s.repo.InsertSystemAccounts(ctx, tenantID, SystemAccounts())
	})
	if err != nil {
		return 0, err
	}
	created := v.(int)
	if created > 0 {
		s.logger.Info("system accounts provisioned", slog.Int64("tenant_id", tenantID), slog.Int("created", created))
	}
	return created, nil
}

// Chart loads the tenant chart and verifies the system accounts are present.
func (s *Service) Chart(ctx context.Context, tenantID int64) (Chart, error) {
	list, err := s.repo.ListAccounts(ctx, tenantID)
	if err != nil {
		return Chart{}, err
	}
	chart := NewChart(tenantID, list)
	if missing := chart.Missing(); len(missing) > 0 {
		return chart, shared.Integrity("accounts.chart", "tenant %d missing system accounts %v", tenantID, missing)
	}
	return chart, nil
}

// Delete soft deletes a user defined account.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	if err := s.ensureMutable(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, tenantID, id)
}

// Rename updates the name of a user defined account.
func (s *Service) Rename(ctx context.Context, tenantID, id int64, name string) error {
	if name == "" {
		return shared.Validation("accounts.rename", "name required")
	}
	if err := s.ensureMutable(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Rename(ctx, tenantID, id, name)
}

func (s *Service) ensureMutable(ctx context.Context, tenantID, id int64) error {
	a, err := s.repo.GetAccount(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return shared.Wrap(shared.ErrNotFound, "accounts.get", err)
		}
		return err
	}
	if a.IsDeleted {
		return shared.Wrap(shared.ErrNotFound, "accounts.get", ErrAccountNotFound)
	}
	if a.IsSystem {
		return shared.Wrap(shared.ErrConflict, "accounts.mutate", ErrSystemAccountImmutable)
	}
	return nil
}
