// Package vouchers runs the voucher lifecycle (draft, posted, voided) and
// writes every artifact of a revision in one transaction.
package vouchers

import (
	"context"
	"errors"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/bills"
	"github.com/odyssey-erp/odyssey-books/internal/catalog"
	"github.com/odyssey-erp/odyssey-books/internal/inventory"
	"github.com/odyssey-erp/odyssey-books/internal/sequence"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

var (
	// ErrVoucherNotFound indicates the voucher does not exist for the tenant.
	ErrVoucherNotFound = errors.New("vouchers: voucher not found")
	// ErrDuplicateIdempotencyKey is returned when a concurrent create won the key.
	ErrDuplicateIdempotencyKey = errors.New("vouchers: idempotency key already used")
	// ErrEditWindowClosed is returned when a posted voucher is edited after its posting day.
	ErrEditWindowClosed = errors.New("vouchers: posted vouchers can only be edited on the day they were posted; void and recreate instead")
	// ErrVoucherVoided is returned when a voided voucher is edited or posted.
	ErrVoucherVoided = errors.New("vouchers: voucher is voided")
)

// TxRepository exposes the operations used inside one lifecycle transaction.
type TxRepository interface {
	inventory.Store
	bills.Store
	sequence.Store

	GetCompany(ctx context.Context, tenantID int64) (catalog.Company, error)
	GetParty(ctx context.Context, tenantID, partyID int64) (catalog.Party, error)
	ListUnits(ctx context.Context, tenantID int64) ([]catalog.Unit, error)
	ListAccounts(ctx context.Context, tenantID int64) ([]accounting.Account, error)

	FindVoucherByIdempotencyKey(ctx context.Context, tenantID int64, key string) (accounting.Voucher, error)
	GetVoucherForUpdate(ctx context.Context, tenantID, voucherID int64) (accounting.Voucher, error)
	InsertVoucher(ctx context.Context, v *accounting.Voucher) error
	UpdateVoucher(ctx context.Context, v accounting.Voucher) error

	InsertPostings(ctx context.Context, postings []accounting.LedgerPosting) error
	VoidPostings(ctx context.Context, tenantID, voucherID int64, at time.Time) error

	InsertStockMoves(ctx context.Context, moves []inventory.StockMove) error
	ListActiveStockMoves(ctx context.Context, tenantID, voucherID int64) ([]inventory.StockMove, error)
	VoidStockMoves(ctx context.Context, tenantID, voucherID int64, at time.Time) error

	InsertLog(ctx context.Context, log *accounting.VoucherLog) error
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetVoucher(ctx context.Context, tenantID, voucherID int64) (accounting.Voucher, error)
	ListLogs(ctx context.Context, tenantID, voucherID int64, page shared.PageRequest) ([]accounting.VoucherLog, error)
}

// Notifier is told after commit that a tenant ledger changed.
type Notifier interface {
	Bump(ctx context.Context, tenantID int64) error
}

// Recorder observes lifecycle operations.
type Recorder interface {
	ObserveVoucher(operation, voucherType string, err error, elapsed time.Duration)
}
