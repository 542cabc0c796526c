package sequence

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
)

// DefaultPadding is the zero-padded width of voucher numbers.
const DefaultPadding = 5

var defaultPrefixes = map[accounting.VoucherType]string{
	accounting.VoucherSalesInvoice:    "SI-",
	accounting.VoucherPurchaseBill:    "PB-",
	accounting.VoucherReceipt:         "RC-",
	accounting.VoucherPayment:         "PY-",
	accounting.VoucherContra:          "CT-",
	accounting.VoucherJournal:         "JV-",
	accounting.VoucherCreditNote:      "CN-",
	accounting.VoucherDebitNote:       "DN-",
	accounting.VoucherDeliveryChallan: "DC-",
	accounting.VoucherStockAdjustment: "SA-",
}

// Key identifies one counter.
type Key struct {
	TenantID      int64
	FiscalYearKey string
	VoucherType   accounting.VoucherType
}

// Store reserves numbers atomically. Reserve returns the value before the
// increment; the first reservation of a key returns 1.
type Store interface {
	Reserve(ctx context.Context, key Key) (int64, error)
}

// Number is an allocated voucher number.
type Number struct {
	FiscalYearKey string
	Sequence      int64
	Formatted     string
}

// Allocator formats reserved numbers.
type Allocator struct {
	padding int
}

// NewAllocator constructs Allocator. padding <= 0 uses DefaultPadding.
func NewAllocator(padding int) *Allocator {
	if padding <= 0 {
		padding = DefaultPadding
	}
	return &Allocator{padding: padding}
}

// Next reserves the next number for the key. prefixes overrides the default
// prefix of a voucher type when it has an entry.
func (a *Allocator) Next(ctx context.Context, st Store, key Key, prefixes map[accounting.VoucherType]string) (Number, error) {
	n, err := st.Reserve(ctx, key)
	if err != nil {
		return Number{}, fmt.Errorf("sequence: reserve: %w", err)
	}
	return Number{FiscalYearKey: key.FiscalYearKey, Sequence: n, Formatted: a.Format(key.VoucherType, n, prefixes)}, nil
}

// Format renders prefix + zero padded number.
func (a *Allocator) Format(vt accounting.VoucherType, n int64, prefixes map[accounting.VoucherType]string) string {
	prefix, ok := prefixes[vt]
	if !ok {
		prefix = Prefix(vt)
	}
	return fmt.Sprintf("%s%0*d", prefix, a.padding, n)
}

// Prefix returns the default prefix of a voucher type.
func Prefix(vt accounting.VoucherType) string {
	if p, ok := defaultPrefixes[vt]; ok {
		return p
	}
	return strings.ToUpper(string(vt)) + "-"
}
