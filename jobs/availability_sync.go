package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

// BalanceStore reads balances and rewrites availability snapshots.
type BalanceStore interface {
	ListTenants(ctx context.Context) ([]int64, error)
	ListBalances(ctx context.Context, tenantID int64) ([]inventory.Balance, error)
	RefreshAvailability(ctx context.Context, balance inventory.Balance) error
}

// AvailabilitySyncJob repairs product and variant availability from the
// inventory balances, which remain the source of truth.
type AvailabilitySyncJob struct {
	Store   BalanceStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAvailabilitySyncJob wires the resync job.
func NewAvailabilitySyncJob(store BalanceStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *AvailabilitySyncJob {
	return &AvailabilitySyncJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAvailabilitySync tasks.
func (j *AvailabilitySyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("availability sync: handler not configured")
	}
	payload, err := decodeTenantPayload(t)
	if err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskAvailabilitySync)
	_, err = j.Run(ctx, payload.TenantID)
	return tracker.End(err)
}

// Run refreshes every balance of one tenant, or of all tenants when tenantID
// is 0, and returns the number of balances refreshed.
func (j *AvailabilitySyncJob) Run(ctx context.Context, tenantID int64) (int, error) {
	tenants := []int64{tenantID}
	if tenantID == 0 {
		var err error
		if tenants, err = j.Store.ListTenants(ctx); err != nil {
			return 0, fmt.Errorf("availability sync: list tenants: %w", err)
		}
	}
	var refreshed int
	for _, tenant := range tenants {
		balances, err := j.Store.ListBalances(ctx, tenant)
		if err != nil {
			return refreshed, fmt.Errorf("availability sync: tenant %d: %w", tenant, err)
		}
		for _, b := range balances {
			if err := ctx.Err(); err != nil {
				return refreshed, err
			}
			if err := j.Store.RefreshAvailability(ctx, b); err != nil {
				return refreshed, fmt.Errorf("availability sync: tenant %d product %d: %w", tenant, b.ProductID, err)
			}
			refreshed++
		}
	}
	j.logger().Info("availability resynced", slog.Int("tenants", len(tenants)), slog.Int("balances", refreshed))
	return refreshed, nil
}

func (j *AvailabilitySyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAvailabilitySync))
	}
	return slog.Default().With(slog.String("job", TaskAvailabilitySync))
}

func (j *AvailabilitySyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
