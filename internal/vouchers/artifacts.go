package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/catalog"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/posting"
	"github.com/odyssey-erp/odyssey-books/internal/sequence"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// resolved is the tenant context of one operation.
type resolved struct {
	input  posting.Input
	policy inventory.Policy
}

func (s *Service) policy(company catalog.Company) inventory.Policy {
	return inventory.Policy{AllowNegativeStock: s.allowNeg || company.AllowNegativeStock}
}

func companyErr(err error) error {
	if errors.Is(err, catalog.ErrCompanyNotFound) {
		return shared.Wrap(shared.ErrNotFound, "vouchers.resolve", err)
	}
	return fmt.Errorf("vouchers: load company: %w", err)
}

// resolve loads company settings, the chart, the party and the unit catalog.
// A chart without every system account is an integrity failure.
func (s *Service) resolve(ctx context.Context, tx TxRepository, tenantID int64, p accounting.Payload) (resolved, error) {
	const op = "vouchers.resolve"
	company, err := tx.GetCompany(ctx, tenantID)
	if err != nil {
		return resolved{}, companyErr(err)
	}
	list, err := tx.ListAccounts(ctx, tenantID)
	if err != nil {
		return resolved{}, fmt.Errorf("vouchers: list accounts: %w", err)
	}
	chart := accounts.NewChart(tenantID, list)
	if missing := chart.Missing(); len(missing) > 0 {
		return resolved{}, shared.Integrity(op, "tenant %d is missing system accounts %s; run provisioning", tenantID, strings.Join(missing, ", "))
	}
	var party *catalog.Party
	if p.PartyID != 0 {
		found, err := tx.GetParty(ctx, tenantID, p.PartyID)
		if errors.Is(err, catalog.ErrPartyNotFound) {
			return resolved{}, shared.Wrap(shared.ErrNotFound, op, err)
		}
		if err != nil {
			return resolved{}, fmt.Errorf("vouchers: load party: %w", err)
		}
		party = &found
	}
	units, err := tx.ListUnits(ctx, tenantID)
	if err != nil {
		return resolved{}, fmt.Errorf("vouchers: list units: %w", err)
	}
	return resolved{
		input: posting.Input{
			TenantID: tenantID,
			Payload:  p,
			Company:  company,
			Party:    party,
			Chart:    chart,
			Units:    catalog.NewUnits(units),
		},
		policy: s.policy(company),
	}, nil
}

func (s *Service) assignNumber(ctx context.Context, tx TxRepository, rc resolved, v *accounting.Voucher) error {
	company := rc.input.Company
	key := sequence.Key{
		TenantID:      v.TenantID,
		FiscalYearKey: sequence.FiscalYearKey(v.Date, company.FiscalYearStartMonth),
		VoucherType:   v.VoucherType,
	}
	n, err := s.alloc.Next(ctx, tx, key, company.VoucherPrefixes)
	if err != nil {
		return err
	}
	v.FiscalYearKey = n.FiscalYearKey
	v.SequenceNumber = n.Sequence
	v.VoucherNumber = n.Formatted
	return nil
}

// persistArtifacts costs and stores the stock moves, completes and stores the
// postings, then applies bill operations of the current revision. A later
// revision books its moves against the previous ones in a single step.
func (s *Service) persistArtifacts(ctx context.Context, tx TxRepository, rc resolved, v *accounting.Voucher, art *posting.Artifacts, previous []inventory.StockMove) error {
	moves := art.StockMoves
	for i := range moves {
		moves[i].VoucherID = v.ID
		moves[i].Revision = v.Revision
	}
	if v.Revision > 1 {
		if err := s.engine.Revise(ctx, tx, rc.policy, previous, moves); err != nil {
			return err
		}
	} else if err := s.engine.ApplyAll(ctx, tx, rc.policy, moves); err != nil {
		return err
	}
	if err := s.builder.Finalize(rc.input, art, moves); err != nil {
		return err
	}
	v.Totals = art.Totals
	if len(moves) > 0 {
		if err := tx.InsertStockMoves(ctx, moves); err != nil {
			return fmt.Errorf("vouchers: insert stock moves: %w", err)
		}
	}

	now := s.now()
	postings := make([]accounting.LedgerPosting, 0, len(art.Postings))
	for _, ln := range art.Postings {
		postings = append(postings, accounting.LedgerPosting{
			TenantID:  v.TenantID,
			VoucherID: v.ID,
			Revision:  v.Revision,
			AccountID: ln.AccountID,
			Date:      v.Date,
			Debit:     ln.Debit,
			Credit:    ln.Credit,
			Narration: ln.Narration,
			CreatedAt: now,
		})
	}
	if len(postings) > 0 {
		if err := tx.InsertPostings(ctx, postings); err != nil {
			return fmt.Errorf("vouchers: insert postings: %w", err)
		}
	}

	v.Meta.Allocations = nil
	for _, bop := range art.BillOps {
		switch bop.Kind {
		case posting.BillCreate:
			_, err := bills.Create(ctx, tx, bills.Bill{
				TenantID:    v.TenantID,
				PartyID:     bop.PartyID,
				VoucherID:   v.ID,
				BillType:    bop.BillType,
				BillNumber:  v.VoucherNumber,
				BillDate:    v.Date,
				DueDate:     bop.DueDate,
				TotalAmount: bop.Amount,
			})
			if err != nil {
				return err
			}
		case posting.BillSettle:
			allocs, _, err := bills.SettleFIFO(ctx, tx, v.TenantID, bop.PartyID, bop.BillType, bop.Amount)
			if err != nil {
				return err
			}
			v.Meta.Allocations = append(v.Meta.Allocations, allocs...)
		}
	}
	return nil
}

// reverseArtifacts undoes the active revision: stock balances are restored
// from the captured move values, then the rest is released.
func (s *Service) reverseArtifacts(ctx context.Context, tx TxRepository, rc resolved, v *accounting.Voucher, at time.Time) error {
	moves, err := tx.ListActiveStockMoves(ctx, v.TenantID, v.ID)
	if err != nil {
		return fmt.Errorf("vouchers: list stock moves: %w", err)
	}
	if err := s.engine.ReverseAll(ctx, tx, rc.policy, moves); err != nil {
		return err
	}
	return s.releaseArtifacts(ctx, tx, v, at)
}

// releaseArtifacts flags postings and moves voided, gives settlements back and
// voids bills raised by the voucher. Balances are left to the caller.
func (s *Service) releaseArtifacts(ctx context.Context, tx TxRepository, v *accounting.Voucher, at time.Time) error {
	if err := tx.VoidStockMoves(ctx, v.TenantID, v.ID, at); err != nil {
		return fmt.Errorf("vouchers: void stock moves: %w", err)
	}
	if err := tx.VoidPostings(ctx, v.TenantID, v.ID, at); err != nil {
		return fmt.Errorf("vouchers: void postings: %w", err)
	}
	if err := bills.ReverseSettlements(ctx, tx, v.TenantID, v.Meta.Allocations); err != nil {
		return err
	}
	v.Meta.Allocations = nil
	return bills.VoidByVoucher(ctx, tx, v.TenantID, v.ID)
}
