package vouchers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/posting"
	"github.com/odyssey-erp/odyssey-books/internal/sequence"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// ServiceConfig groups lifecycle settings.
type ServiceConfig struct {
	AllowNegativeStock bool
	QtyPlaces          int32
	SequencePadding    int
}

// CreateOptions controls Create.
type CreateOptions struct {
	// Status is draft (default) or posted.
	Status accounting.VoucherStatus
}

// Service coordinates the voucher lifecycle.
type Service struct {
	repo     RepositoryPort
	builder  *posting.Builder
	engine   *inventory.Engine
	alloc    *sequence.Allocator
	allowNeg bool
	logger   *slog.Logger
	metrics  Recorder
	notifier Notifier
	now      func() time.Time
}

// Option customises Service.
type Option func(*Service)

// WithNow overrides the clock.
func WithNow(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// WithMetrics records operation outcomes.
func WithMetrics(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithNotifier registers the post-commit ledger notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		builder:  posting.NewBuilder(cfg.QtyPlaces),
		engine:   inventory.NewEngine(cfg.QtyPlaces),
		alloc:    sequence.NewAllocator(cfg.SequencePadding),
		allowNeg: cfg.AllowNegativeStock,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new voucher as a draft or posts it immediately. A payload
// whose idempotency key was already used returns the stored voucher.
func (s *Service) Create(ctx context.Context, tenantID, actorID int64, payload accounting.Payload, opts CreateOptions) (accounting.Voucher, error) {
	const op = "vouchers.create"
	status := opts.Status
	if status == "" {
		status = accounting.StatusDraft
	}
	if status != accounting.StatusDraft && status != accounting.StatusPosted {
		return accounting.Voucher{}, shared.Validation(op, "status must be draft or posted")
	}

	var out accounting.Voucher
	var replay bool
	err := s.run(ctx, "create", payload.VoucherType, func(ctx context.Context, tx TxRepository) error {
		replay = false
		if payload.IdempotencyKey != "" {
			existing, err := tx.FindVoucherByIdempotencyKey(ctx, tenantID, payload.IdempotencyKey)
			if err == nil {
				out, replay = existing, true
				return nil
			}
			if !errors.Is(err, ErrVoucherNotFound) {
				return err
			}
		}
		rc, err := s.resolve(ctx, tx, tenantID, payload)
		if err != nil {
			return err
		}
		now := s.now()
		v := accounting.Voucher{
			TenantID:       tenantID,
			VoucherType:    payload.VoucherType,
			Status:         accounting.StatusDraft,
			Revision:       1,
			IdempotencyKey: payload.IdempotencyKey,
			CreatedBy:      actorID,
			CreatedAt:      now,
		}
		applyPayload(&v, payload, actorID, now)

		if status == accounting.StatusDraft {
			if err := posting.ValidateDraft(payload); err != nil {
				return err
			}
			v.Totals = s.builder.DraftTotals(rc.input)
			if err := s.insertVoucher(ctx, tx, &v); err != nil {
				return err
			}
			out = v
			return s.writeLog(ctx, tx, accounting.LogCreated, actorID, nil, &v)
		}

		art, err := s.builder.Build(rc.input)
		if err != nil {
			return err
		}
		if err := s.assignNumber(ctx, tx, rc, &v); err != nil {
			return err
		}
		v.Status = accounting.StatusPosted
		v.PostedAt = &now
		v.Totals = art.Totals
		if err := s.insertVoucher(ctx, tx, &v); err != nil {
			return err
		}
		if err := s.persistArtifacts(ctx, tx, rc, &v, art, nil); err != nil {
			return err
		}
		if err := tx.UpdateVoucher(ctx, v); err != nil {
			return err
		}
		if err := s.writeLog(ctx, tx, accounting.LogCreated, actorID, nil, &v); err != nil {
			return err
		}
		out = v
		return s.writeLog(ctx, tx, accounting.LogPosted, actorID, nil, &v)
	})
	if err != nil {
		return accounting.Voucher{}, err
	}
	if replay {
		s.logger.Debug("voucher.replayed", slog.Int64("tenant_id", tenantID), slog.Int64("voucher_id", out.ID), slog.String("idempotency_key", payload.IdempotencyKey))
		return out, nil
	}
	event := "voucher.created"
	if out.Status == accounting.StatusPosted {
		event = "voucher.posted"
	}
	s.afterCommit(ctx, event, out, out.Status == accounting.StatusPosted)
	return out, nil
}

// Update edits a voucher. Drafts are edited freely; posted vouchers only on
// the day they were posted, creating a new revision.
func (s *Service) Update(ctx context.Context, tenantID, voucherID, actorID int64, payload accounting.Payload) (accounting.Voucher, error) {
	const op = "vouchers.update"
	var out accounting.Voucher
	err := s.run(ctx, "update", payload.VoucherType, func(ctx context.Context, tx TxRepository) error {
		v, err := s.loadForUpdate(ctx, tx, tenantID, voucherID)
		if err != nil {
			return err
		}
		if payload.VoucherType == "" {
			payload.VoucherType = v.VoucherType
		}
		payload.IdempotencyKey = v.IdempotencyKey
		before := cloneVoucher(v)
		now := s.now()

		switch v.Status {
		case accounting.StatusVoided:
			return shared.Wrap(shared.ErrConflict, op, ErrVoucherVoided)
		case accounting.StatusDraft:
			if err := posting.ValidateDraft(payload); err != nil {
				return err
			}
			rc, err := s.resolve(ctx, tx, tenantID, payload)
			if err != nil {
				return err
			}
			v.VoucherType = payload.VoucherType
			applyPayload(&v, payload, actorID, now)
			v.Totals = s.builder.DraftTotals(rc.input)
			if err := tx.UpdateVoucher(ctx, v); err != nil {
				return err
			}
			out = v
			return s.writeLog(ctx, tx, accounting.LogUpdated, actorID, &before, &v)
		}

		if payload.VoucherType != v.VoucherType {
			return shared.Validation(op, "voucher type cannot change once posted")
		}
		rc, err := s.resolve(ctx, tx, tenantID, payload)
		if err != nil {
			return err
		}
		if !s.withinEditWindow(v, rc.input.Company.Location(), now) {
			return shared.Wrap(shared.ErrConflict, op, ErrEditWindowClosed)
		}
		art, err := s.builder.Build(rc.input)
		if err != nil {
			return err
		}
		previous, err := tx.ListActiveStockMoves(ctx, tenantID, v.ID)
		if err != nil {
			return fmt.Errorf("vouchers: list stock moves: %w", err)
		}
		if err := s.releaseArtifacts(ctx, tx, &v, now); err != nil {
			return err
		}
		v.Revision++
		applyPayload(&v, payload, actorID, now)
		v.Totals = art.Totals
		if err := s.persistArtifacts(ctx, tx, rc, &v, art, previous); err != nil {
			return err
		}
		if err := tx.UpdateVoucher(ctx, v); err != nil {
			return err
		}
		out = v
		return s.writeLog(ctx, tx, accounting.LogUpdated, actorID, &before, &v)
	})
	if err != nil {
		return accounting.Voucher{}, err
	}
	s.afterCommit(ctx, "voucher.updated", out, out.Status == accounting.StatusPosted)
	return out, nil
}

// PostDraft posts a draft using its stored payload.
func (s *Service) PostDraft(ctx context.Context, tenantID, voucherID, actorID int64) (accounting.Voucher, error) {
	const op = "vouchers.post"
	var out accounting.Voucher
	err := s.run(ctx, "post", "", func(ctx context.Context, tx TxRepository) error {
		v, err := s.loadForUpdate(ctx, tx, tenantID, voucherID)
		if err != nil {
			return err
		}
		if v.Status != accounting.StatusDraft {
			return shared.Conflict(op, "only drafts can be posted; voucher %d is %s", v.ID, v.Status)
		}
		before := cloneVoucher(v)
		payload := v.Meta.Input
		payload.VoucherType = v.VoucherType
		rc, err := s.resolve(ctx, tx, tenantID, payload)
		if err != nil {
			return err
		}
		art, err := s.builder.Build(rc.input)
		if err != nil {
			return err
		}
		now := s.now()
		if err := s.assignNumber(ctx, tx, rc, &v); err != nil {
			return err
		}
		v.Status = accounting.StatusPosted
		v.PostedAt = &now
		v.UpdatedBy = actorID
		v.UpdatedAt = now
		v.Totals = art.Totals
		if err := s.persistArtifacts(ctx, tx, rc, &v, art, nil); err != nil {
			return err
		}
		if err := tx.UpdateVoucher(ctx, v); err != nil {
			return err
		}
		out = v
		return s.writeLog(ctx, tx, accounting.LogPosted, actorID, &before, &v)
	})
	if err != nil {
		return accounting.Voucher{}, err
	}
	s.afterCommit(ctx, "voucher.posted", out, true)
	return out, nil
}

// Void reverses every active artifact and marks the voucher voided. Voiding a
// voided voucher returns it unchanged.
func (s *Service) Void(ctx context.Context, tenantID, voucherID, actorID int64, reason string) (accounting.Voucher, error) {
	var out accounting.Voucher
	var already, wasPosted bool
	err := s.run(ctx, "void", "", func(ctx context.Context, tx TxRepository) error {
		v, err := s.loadForUpdate(ctx, tx, tenantID, voucherID)
		if err != nil {
			return err
		}
		out, already = v, v.Status == accounting.StatusVoided
		if already {
			return nil
		}
		before := cloneVoucher(v)
		now := s.now()
		wasPosted = v.Status == accounting.StatusPosted
		if wasPosted {
			company, err := tx.GetCompany(ctx, tenantID)
			if err != nil {
				return companyErr(err)
			}
			rc := resolved{policy: s.policy(company)}
			if err := s.reverseArtifacts(ctx, tx, rc, &v, now); err != nil {
				return err
			}
		}
		v.Status = accounting.StatusVoided
		v.VoidReason = reason
		v.VoidedAt = &now
		v.UpdatedBy = actorID
		v.UpdatedAt = now
		if err := tx.UpdateVoucher(ctx, v); err != nil {
			return err
		}
		out = v
		return s.writeLog(ctx, tx, accounting.LogVoided, actorID, &before, &v)
	})
	if err != nil {
		return accounting.Voucher{}, err
	}
	if !already {
		s.afterCommit(ctx, "voucher.voided", out, wasPosted)
	}
	return out, nil
}

// Get returns a voucher of the tenant.
func (s *Service) Get(ctx context.Context, tenantID, voucherID int64) (accounting.Voucher, error) {
	v, err := s.repo.GetVoucher(ctx, tenantID, voucherID)
	if errors.Is(err, ErrVoucherNotFound) {
		return accounting.Voucher{}, shared.Wrap(shared.ErrNotFound, "vouchers.get", err)
	}
	return v, err
}

// ListLogs returns the audit trail of a voucher, oldest first.
func (s *Service) ListLogs(ctx context.Context, tenantID, voucherID int64, page shared.PageRequest) ([]accounting.VoucherLog, error) {
	if _, err := s.Get(ctx, tenantID, voucherID); err != nil {
		return nil, err
	}
	return s.repo.ListLogs(ctx, tenantID, voucherID, page.Normalize())
}

func (s *Service) run(ctx context.Context, operation string, vt accounting.VoucherType, fn func(context.Context, TxRepository) error) error {
	start := time.Now()
	err := s.repo.WithTx(ctx, fn)
	if s.metrics != nil {
		s.metrics.ObserveVoucher(operation, string(vt), err, time.Since(start))
	}
	return err
}

// afterCommit runs hooks that must never fail a committed operation. The
// ledger cache is bumped only when postings changed.
func (s *Service) afterCommit(ctx context.Context, event string, v accounting.Voucher, ledgerChanged bool) {
	s.logger.Info(event,
		slog.Int64("tenant_id", v.TenantID),
		slog.Int64("voucher_id", v.ID),
		slog.String("voucher_type", string(v.VoucherType)),
		slog.Int("revision", v.Revision),
		slog.String("voucher_number", v.VoucherNumber),
	)
	if s.notifier == nil || !ledgerChanged {
		return
	}
	if err := s.notifier.Bump(ctx, v.TenantID); err != nil {
		s.logger.Warn("ledger cache bump failed", slog.Int64("tenant_id", v.TenantID), slog.Any("error", err))
	}
}

func (s *Service) loadForUpdate(ctx context.Context, tx TxRepository, tenantID, voucherID int64) (accounting.Voucher, error) {
	v, err := tx.GetVoucherForUpdate(ctx, tenantID, voucherID)
	if errors.Is(err, ErrVoucherNotFound) {
		return accounting.Voucher{}, shared.Wrap(shared.ErrNotFound, "vouchers.load", err)
	}
	return v, err
}

func (s *Service) insertVoucher(ctx context.Context, tx TxRepository, v *accounting.Voucher) error {
	err := tx.InsertVoucher(ctx, v)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		return shared.Wrap(shared.ErrConflict, "vouchers.create", err)
	}
	return err
}

// withinEditWindow compares calendar days in the company timezone.
func (s *Service) withinEditWindow(v accounting.Voucher, loc *time.Location, now time.Time) bool {
	ref := v.CreatedAt
	if v.PostedAt != nil {
		ref = *v.PostedAt
	}
	return sameDay(ref, now, loc)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func applyPayload(v *accounting.Voucher, p accounting.Payload, actorID int64, now time.Time) {
	v.Date = p.Date
	v.PartyID = p.PartyID
	v.Lines = p.Lines
	v.Narration = p.Narration
	v.Meta.Input = p
	v.UpdatedBy = actorID
	v.UpdatedAt = now
}

func cloneVoucher(v accounting.Voucher) accounting.Voucher {
	v.Meta.Allocations = slices.Clone(v.Meta.Allocations)
	return v
}

func (s *Service) writeLog(ctx context.Context, tx TxRepository, action accounting.LogAction, actorID int64, before, after *accounting.Voucher) error {
	var snapshot *accounting.Voucher
	if after != nil {
		c := cloneVoucher(*after)
		snapshot = &c
	}
	return tx.InsertLog(ctx, &accounting.VoucherLog{
		TenantID:  after.TenantID,
		VoucherID: after.ID,
		Action:    action,
		Revision:  after.Revision,
		ActorID:   actorID,
		Before:    before,
		After:     snapshot,
		CreatedAt: s.now(),
	})
}
