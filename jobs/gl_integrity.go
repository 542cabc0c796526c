package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

// FindingKind classifies a ledger integrity problem.
type FindingKind string

const (
	FindingUnbalanced FindingKind = "unbalanced"
	FindingOrphaned   FindingKind = "orphaned"
)

// Severity returns the anomaly severity reported for the kind.
func (k FindingKind) Severity() string {
	if k == FindingUnbalanced {
		return "critical"
	}
	return "high"
}

// Finding is one voucher failing an integrity rule.
type Finding struct {
	Kind          FindingKind
	TenantID      int64
	VoucherID     int64
	Revision      int
	VoucherNumber string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// LedgerScanner reads the data checked by GLIntegrityJob.
type LedgerScanner interface {
	ListTenants(ctx context.Context) ([]int64, error)
	UnbalancedVouchers(ctx context.Context, tenantID int64) ([]Finding, error)
	OrphanedPostings(ctx context.Context, tenantID int64) ([]Finding, error)
}

// GLIntegrityJob verifies that every posted revision balances and that no
// active posting outlived its voucher revision.
type GLIntegrityJob struct {
	Store   LedgerScanner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGLIntegrityJob wires the integrity scan.
func NewGLIntegrityJob(store LedgerScanner, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskGLIntegrity tasks.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("gl integrity: handler not configured")
	}
	payload, err := decodeTenantPayload(t)
	if err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskGLIntegrity)
	_, err = j.Run(ctx, payload.TenantID)
	return tracker.End(err)
}

// Run scans one tenant, or all tenants when tenantID is 0, and returns the findings.
func (j *GLIntegrityJob) Run(ctx context.Context, tenantID int64) ([]Finding, error) {
	start := time.Now()
	tenants := []int64{tenantID}
	if tenantID == 0 {
		var err error
		if tenants, err = j.Store.ListTenants(ctx); err != nil {
			return nil, fmt.Errorf("gl integrity: list tenants: %w", err)
		}
	}

	var all []Finding
	for _, tenant := range tenants {
		unbalanced, err := j.Store.UnbalancedVouchers(ctx, tenant)
		if err != nil {
			return all, fmt.Errorf("gl integrity: tenant %d: %w", tenant, err)
		}
		orphaned, err := j.Store.OrphanedPostings(ctx, tenant)
		if err != nil {
			return all, fmt.Errorf("gl integrity: tenant %d: %w", tenant, err)
		}
		for _, f := range append(unbalanced, orphaned...) {
			j.logger().Warn("ledger integrity violation",
				slog.String("kind", string(f.Kind)),
				slog.Int64("tenant_id", f.TenantID),
				slog.Int64("voucher_id", f.VoucherID),
				slog.Int("revision", f.Revision),
				slog.String("voucher_number", f.VoucherNumber),
				slog.String("debit", f.Debit.String()),
				slog.String("credit", f.Credit.String()),
			)
			j.metrics().AddAnomalies(f.Kind.Severity(), f.TenantID, 1)
			all = append(all, f)
		}
	}

	j.logger().Info("completed gl integrity scan",
		slog.Int("tenants", len(tenants)),
		slog.Int("findings", len(all)),
		slog.Duration("duration", time.Since(start)),
	)
	return all, nil
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGLIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskGLIntegrity))
}

func (j *GLIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
