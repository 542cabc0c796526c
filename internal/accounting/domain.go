package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// DrCr marks the side of an opening balance.
type DrCr string

const (
	Debit  DrCr = "dr"
	Credit DrCr = "cr"
)

// OpeningBalance is the optional brought-forward amount of an account.
type OpeningBalance struct {
	Amount decimal.Decimal `json:"amount"`
	DrCr   DrCr            `json:"drCr"`
}

// Account models a chart of accounts node.
type Account struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenantId"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Group          string          `json:"group"`
	IsSystem       bool            `json:"isSystem"`
	OpeningBalance *OpeningBalance `json:"openingBalance,omitempty"`
	IsDeleted      bool            `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// VoucherType enumerates the supported business documents.
type VoucherType string

const (
	VoucherSalesInvoice    VoucherType = "sales_invoice"
	VoucherPurchaseBill    VoucherType = "purchase_bill"
	VoucherReceipt         VoucherType = "receipt"
	VoucherPayment         VoucherType = "payment"
	VoucherContra          VoucherType = "contra"
	VoucherJournal         VoucherType = "journal"
	VoucherCreditNote      VoucherType = "credit_note"
	VoucherDebitNote       VoucherType = "debit_note"
	VoucherDeliveryChallan VoucherType = "delivery_challan"
	VoucherStockAdjustment VoucherType = "stock_adjustment"
)

// VoucherTypes lists every supported type in a stable order.
var VoucherTypes = []VoucherType{
	VoucherSalesInvoice,
	VoucherPurchaseBill,
	VoucherReceipt,
	VoucherPayment,
	VoucherContra,
	VoucherJournal,
	VoucherCreditNote,
	VoucherDebitNote,
	VoucherDeliveryChallan,
	VoucherStockAdjustment,
}

// Valid reports whether the type is known.
func (t VoucherType) Valid() bool {
	for _, v := range VoucherTypes {
		if v == t {
			return true
		}
	}
	return false
}

// HasGST reports whether tax is computed for the voucher type.
func (t VoucherType) HasGST() bool {
	switch t {
	case VoucherSalesInvoice, VoucherPurchaseBill, VoucherCreditNote, VoucherDebitNote:
		return true
	}
	return false
}

// VoucherStatus enumerates voucher lifecycle values.
type VoucherStatus string

const (
	StatusDraft  VoucherStatus = "draft"
	StatusPosted VoucherStatus = "posted"
	StatusVoided VoucherStatus = "voided"
)

// GSTType selects the tax buckets used for a voucher.
type GSTType string

const (
	GSTIntraState GSTType = "cgst_sgst"
	GSTInterState GSTType = "igst"
)

// Valid reports whether the GST type is known.
func (g GSTType) Valid() bool {
	return g == GSTIntraState || g == GSTInterState
}

// ItemLine is a stock line on a voucher.
type ItemLine struct {
	ProductID   int64           `json:"productId"`
	VariantID   int64           `json:"variantId,omitempty"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Discount    decimal.Decimal `json:"discount"`
	Amount      decimal.Decimal `json:"amount"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	// Adjustment is the signed quantity of a stock adjustment line.
	Adjustment decimal.Decimal `json:"adjustment"`
}

// ChargeLine is a non-stock amount (freight, packing) on a voucher.
type ChargeLine struct {
	AccountID int64           `json:"accountId,omitempty"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	TaxRate   decimal.Decimal `json:"taxRate"`
}

// JournalLine is a manual debit or credit line.
type JournalLine struct {
	AccountID int64           `json:"accountId"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Narration string          `json:"narration,omitempty"`
}

// Lines groups the line collections of a voucher.
type Lines struct {
	Items   []ItemLine    `json:"items,omitempty"`
	Charges []ChargeLine  `json:"charges,omitempty"`
	Journal []JournalLine `json:"journal,omitempty"`
}

// StockDirection is the direction of an inventory movement.
type StockDirection string

const (
	StockIn  StockDirection = "in"
	StockOut StockDirection = "out"
)

// Payload is the caller supplied voucher content.
type Payload struct {
	VoucherType       VoucherType     `json:"voucherType"`
	Date              time.Time       `json:"date"`
	PartyID           int64           `json:"partyId,omitempty"`
	CashBankAccountID int64           `json:"cashBankAccountId,omitempty"`
	FromAccountID     int64           `json:"fromAccountId,omitempty"`
	ToAccountID       int64           `json:"toAccountId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	GSTType           GSTType         `json:"gstType,omitempty"`
	RoundOff          decimal.Decimal `json:"roundOff"`
	Lines             Lines           `json:"lines"`
	Narration         string          `json:"narration,omitempty"`
	Reference         string          `json:"reference,omitempty"`
	DueDate           *time.Time      `json:"dueDate,omitempty"`
	StockDirection    StockDirection  `json:"stockDirection,omitempty"`
	UpdateStock       bool            `json:"updateStock,omitempty"`
	IdempotencyKey    string          `json:"idempotencyKey,omitempty"`
}

// TaxBreakdown holds GST aggregates. It is nil for non-GST voucher types.
type TaxBreakdown struct {
	GSTType  GSTType         `json:"gstType"`
	Taxable  decimal.Decimal `json:"taxable"`
	GSTTotal decimal.Decimal `json:"gstTotal"`
	Gross    decimal.Decimal `json:"gross"`
	RoundOff decimal.Decimal `json:"roundOff"`
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	IGST     decimal.Decimal `json:"igst"`
}

// Totals summarises a voucher.
type Totals struct {
	Net decimal.Decimal `json:"net"`
	Tax *TaxBreakdown   `json:"tax,omitempty"`
}

// Allocation records an amount applied to a bill by a voucher.
type Allocation struct {
	BillID int64           `json:"billId"`
	Amount decimal.Decimal `json:"amount"`
}

// VoucherMeta keeps the raw input snapshot and reversal data.
type VoucherMeta struct {
	Input       Payload      `json:"input"`
	Allocations []Allocation `json:"allocations,omitempty"`
}

// Voucher is the transaction root.
type Voucher struct {
	ID             int64         `json:"id"`
	TenantID       int64         `json:"tenantId"`
	VoucherType    VoucherType   `json:"voucherType"`
	Status         VoucherStatus `json:"status"`
	Revision       int           `json:"revision"`
	Date           time.Time     `json:"date"`
	PartyID        int64         `json:"partyId,omitempty"`
	Lines          Lines         `json:"lines"`
	Totals         Totals        `json:"totals"`
	FiscalYearKey  string        `json:"fiscalYearKey,omitempty"`
	SequenceNumber int64         `json:"sequenceNumber,omitempty"`
	VoucherNumber  string        `json:"voucherNumber,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
	Narration      string        `json:"narration,omitempty"`
	Meta           VoucherMeta   `json:"meta"`
	VoidReason     string        `json:"voidReason,omitempty"`
	CreatedBy      int64         `json:"createdBy"`
	UpdatedBy      int64         `json:"updatedBy"`
	PostedAt       *time.Time    `json:"postedAt,omitempty"`
	VoidedAt       *time.Time    `json:"voidedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// LedgerPosting is one immutable debit or credit row of a voucher revision.
type LedgerPosting struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenantId"`
	VoucherID int64           `json:"voucherId"`
	Revision  int             `json:"revision"`
	AccountID int64           `json:"accountId"`
	Date      time.Time       `json:"date"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Narration string          `json:"narration,omitempty"`
	IsVoided  bool            `json:"isVoided"`
	CreatedAt time.Time       `json:"createdAt"`
	VoidedAt  *time.Time      `json:"voidedAt,omitempty"`
}

// LogAction enumerates audit log actions.
type LogAction string

const (
	LogCreated LogAction = "created"
	LogPosted  LogAction = "posted"
	LogUpdated LogAction = "updated"
	LogVoided  LogAction = "voided"
)

// VoucherLog is an append-only audit entry.
type VoucherLog struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenantId"`
	VoucherID int64     `json:"voucherId"`
	Action    LogAction `json:"action"`
	Revision  int       `json:"revision"`
	ActorID   int64     `json:"actorId"`
	Before    *Voucher  `json:"before,omitempty"`
	After     *Voucher  `json:"after,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
