package vouchers

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/catalog"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/internal/sequence"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

const idempotencyConstraint = "vouchers_tenant_idempotency_key"

const voucherColumns = `id, tenant_id, voucher_type, status, revision, date, COALESCE(party_id, 0), lines, totals,
	COALESCE(fiscal_year_key, ''), COALESCE(sequence_number, 0), COALESCE(voucher_number, ''), COALESCE(idempotency_key, ''),
	narration, meta, void_reason, created_by, updated_by, posted_at, voided_at, created_at, updated_at`

type repository struct {
	pool       *pgxpool.Pool
	maxRetries int
}

// NewRepository returns the PostgreSQL backed RepositoryPort. Transactions
// aborted by serialization failures or deadlocks are retried maxRetries times.
func NewRepository(pool *pgxpool.Pool, maxRetries int) RepositoryPort {
	return &repository{pool: pool, maxRetries: maxRetries}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithRetryTx(ctx, r.pool, r.maxRetries, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepository(tx))
	})
}

func (r *repository) GetVoucher(ctx context.Context, tenantID, voucherID int64) (accounting.Voucher, error) {
	return scanVoucher(r.pool.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id=$1 AND id=$2`, tenantID, voucherID))
}

func (r *repository) ListLogs(ctx context.Context, tenantID, voucherID int64, page shared.PageRequest) ([]accounting.VoucherLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, voucher_id, action, revision, actor_id, before, after, created_at
FROM voucher_logs WHERE tenant_id=$1 AND voucher_id=$2 ORDER BY id LIMIT $3 OFFSET $4`, tenantID, voucherID, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []accounting.VoucherLog
	for rows.Next() {
		var l accounting.VoucherLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.VoucherID, &l.Action, &l.Revision, &l.ActorID, &l.Before, &l.After, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// txRepository composes the per-domain stores over one transaction.
type txRepository struct {
	tx        pgx.Tx
	catalog   *catalog.Store
	accounts  *accounts.Store
	inventory *inventory.PGStore
	bills     *bills.PGStore
	sequences *sequence.PGStore
}

func newTxRepository(tx pgx.Tx) *txRepository {
	return &txRepository{
		tx:        tx,
		catalog:   catalog.NewStore(tx),
		accounts:  accounts.NewStore(tx),
		inventory: inventory.NewPGStore(tx),
		bills:     bills.NewPGStore(tx),
		sequences: sequence.NewPGStore(tx),
	}
}

func (r *txRepository) GetCompany(ctx context.Context, tenantID int64) (catalog.Company, error) {
	return r.catalog.GetCompany(ctx, tenantID)
}

func (r *txRepository) GetParty(ctx context.Context, tenantID, partyID int64) (catalog.Party, error) {
	return r.catalog.GetParty(ctx, tenantID, partyID)
}

func (r *txRepository) ListUnits(ctx context.Context, tenantID int64) ([]catalog.Unit, error) {
	return r.catalog.ListUnits(ctx, tenantID)
}

func (r *txRepository) ListAccounts(ctx context.Context, tenantID int64) ([]accounting.Account, error) {
	return r.accounts.ListAccounts(ctx, tenantID)
}

func (r *txRepository) LockBalance(ctx context.Context, tenantID, productID, variantID int64) (inventory.Balance, error) {
	return r.inventory.LockBalance(ctx, tenantID, productID, variantID)
}

func (r *txRepository) SaveBalance(ctx context.Context, b inventory.Balance) error {
	return r.inventory.SaveBalance(ctx, b)
}

func (r *txRepository) RefreshAvailability(ctx context.Context, b inventory.Balance) error {
	return r.inventory.RefreshAvailability(ctx, b)
}

func (r *txRepository) InsertStockMoves(ctx context.Context, moves []inventory.StockMove) error {
	return r.inventory.InsertStockMoves(ctx, moves)
}

func (r *txRepository) ListActiveStockMoves(ctx context.Context, tenantID, voucherID int64) ([]inventory.StockMove, error) {
	return r.inventory.ListActiveStockMoves(ctx, tenantID, voucherID)
}

func (r *txRepository) VoidStockMoves(ctx context.Context, tenantID, voucherID int64, at time.Time) error {
	return r.inventory.VoidStockMoves(ctx, tenantID, voucherID, at)
}

func (r *txRepository) InsertBill(ctx context.Context, b *bills.Bill) error {
	return r.bills.InsertBill(ctx, b)
}

func (r *txRepository) ListOpenBillsForUpdate(ctx context.Context, tenantID, partyID int64, billType bills.BillType) ([]bills.Bill, error) {
	return r.bills.ListOpenBillsForUpdate(ctx, tenantID, partyID, billType)
}

func (r *txRepository) GetBillForUpdate(ctx context.Context, tenantID, billID int64) (bills.Bill, error) {
	return r.bills.GetBillForUpdate(ctx, tenantID, billID)
}

func (r *txRepository) UpdateBill(ctx context.Context, b bills.Bill) error {
	return r.bills.UpdateBill(ctx, b)
}

func (r *txRepository) ListBillsByVoucher(ctx context.Context, tenantID, voucherID int64) ([]bills.Bill, error) {
	return r.bills.ListBillsByVoucher(ctx, tenantID, voucherID)
}

func (r *txRepository) Reserve(ctx context.Context, key sequence.Key) (int64, error) {
	return r.sequences.Reserve(ctx, key)
}

func (r *txRepository) FindVoucherByIdempotencyKey(ctx context.Context, tenantID int64, key string) (accounting.Voucher, error) {
	return scanVoucher(r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id=$1 AND idempotency_key=$2`, tenantID, key))
}

func (r *txRepository) GetVoucherForUpdate(ctx context.Context, tenantID, voucherID int64) (accounting.Voucher, error) {
	return scanVoucher(r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, voucherID))
}

func (r *txRepository) InsertVoucher(ctx context.Context, v *accounting.Voucher) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO vouchers
(tenant_id, voucher_type, status, revision, date, party_id, lines, totals, fiscal_year_key, sequence_number, voucher_number,
 idempotency_key, narration, meta, void_reason, created_by, updated_by, posted_at, voided_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,0),$7,$8,NULLIF($9,''),NULLIF($10,0),NULLIF($11,''),NULLIF($12,''),$13,$14,$15,$16,$17,$18,$19,$20,$21)
RETURNING id`,
		v.TenantID, v.VoucherType, v.Status, v.Revision, v.Date, v.PartyID, v.Lines, v.Totals, v.FiscalYearKey, v.SequenceNumber,
		v.VoucherNumber, v.IdempotencyKey, v.Narration, v.Meta, v.VoidReason, v.CreatedBy, v.UpdatedBy, v.PostedAt, v.VoidedAt,
		v.CreatedAt, v.UpdatedAt).Scan(&v.ID)
	if db.IsUniqueViolation(err, idempotencyConstraint) {
		return ErrDuplicateIdempotencyKey
	}
	return err
}

func (r *txRepository) UpdateVoucher(ctx context.Context, v accounting.Voucher) error {
	tag, err := r.tx.Exec(ctx, `UPDATE vouchers SET voucher_type=$3, status=$4, revision=$5, date=$6, party_id=NULLIF($7,0), lines=$8, totals=$9,
	fiscal_year_key=NULLIF($10,''), sequence_number=NULLIF($11,0), voucher_number=NULLIF($12,''), narration=$13, meta=$14,
	void_reason=$15, updated_by=$16, posted_at=$17, voided_at=$18, updated_at=$19
WHERE tenant_id=$1 AND id=$2`,
		v.TenantID, v.ID, v.VoucherType, v.Status, v.Revision, v.Date, v.PartyID, v.Lines, v.Totals,
		v.FiscalYearKey, v.SequenceNumber, v.VoucherNumber, v.Narration, v.Meta,
		v.VoidReason, v.UpdatedBy, v.PostedAt, v.VoidedAt, v.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

func (r *txRepository) InsertPostings(ctx context.Context, postings []accounting.LedgerPosting) error {
	batch := &pgx.Batch{}
	for _, p := range postings {
		batch.Queue(`INSERT INTO ledger_postings (tenant_id, voucher_id, revision, account_id, date, debit, credit, narration, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, p.TenantID, p.VoucherID, p.Revision, p.AccountID, p.Date, p.Debit, p.Credit, p.Narration, p.CreatedAt)
	}
	return r.tx.SendBatch(ctx, batch).Close()
}

func (r *txRepository) VoidPostings(ctx context.Context, tenantID, voucherID int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE ledger_postings SET is_voided=TRUE, voided_at=$3
WHERE tenant_id=$1 AND voucher_id=$2 AND NOT is_voided`, tenantID, voucherID, at)
	return err
}

func (r *txRepository) InsertLog(ctx context.Context, l *accounting.VoucherLog) error {
	return r.tx.QueryRow(ctx, `INSERT INTO voucher_logs (tenant_id, voucher_id, action, revision, actor_id, before, after, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		l.TenantID, l.VoucherID, l.Action, l.Revision, l.ActorID, l.Before, l.After, l.CreatedAt).Scan(&l.ID)
}

func scanVoucher(row pgx.Row) (accounting.Voucher, error) {
	var v accounting.Voucher
	err := row.Scan(&v.ID, &v.TenantID, &v.VoucherType, &v.Status, &v.Revision, &v.Date, &v.PartyID, &v.Lines, &v.Totals,
		&v.FiscalYearKey, &v.SequenceNumber, &v.VoucherNumber, &v.IdempotencyKey,
		&v.Narration, &v.Meta, &v.VoidReason, &v.CreatedBy, &v.UpdatedBy, &v.PostedAt, &v.VoidedAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return accounting.Voucher{}, ErrVoucherNotFound
	}
	return v, err
}
