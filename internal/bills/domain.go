// Package bills tracks receivable and payable obligations and settles them
// first in, first out.
package bills

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BillType distinguishes receivables from payables.
type BillType string

const (
	Receivable BillType = "receivable"
	Payable    BillType = "payable"
)

// Status enumerates bill states.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusVoided Status = "voided"
)

// Bill is an outstanding obligation raised by a voucher.
type Bill struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"tenantId"`
	PartyID       int64           `json:"partyId"`
	VoucherID     int64           `json:"voucherId"`
	BillType      BillType        `json:"billType"`
	BillNumber    string          `json:"billNumber"`
	BillDate      time.Time       `json:"billDate"`
	DueDate       time.Time       `json:"dueDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	SettledAmount decimal.Decimal `json:"settledAmount"`
	BalanceAmount decimal.Decimal `json:"balanceAmount"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

var (
	// ErrBillNotFound indicates the bill does not exist for the tenant.
	ErrBillNotFound = errors.New("bills: bill not found")
	// ErrInvalidAmount indicates a non-positive bill or settlement amount.
	ErrInvalidAmount = errors.New("bills: amount must be positive")
)
