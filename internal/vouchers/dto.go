package vouchers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// VoucherRequest is the JSON body of create and update calls.
type VoucherRequest struct {
	VoucherType       accounting.VoucherType    `json:"voucherType" validate:"omitempty,oneof=sales_invoice purchase_bill receipt payment contra journal credit_note debit_note delivery_challan stock_adjustment"`
	Status            accounting.VoucherStatus  `json:"status" validate:"omitempty,oneof=draft posted"`
	Date              string                    `json:"date" validate:"required,datetime=2006-01-02"`
	DueDate           string                    `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	PartyID           int64                     `json:"partyId" validate:"gte=0"`
	CashBankAccountID int64                     `json:"cashBankAccountId" validate:"gte=0"`
	FromAccountID     int64                     `json:"fromAccountId" validate:"gte=0"`
	ToAccountID       int64                     `json:"toAccountId" validate:"gte=0"`
	Amount            decimal.Decimal           `json:"amount"`
	GSTType           accounting.GSTType        `json:"gstType" validate:"omitempty,oneof=cgst_sgst igst"`
	RoundOff          decimal.Decimal           `json:"roundOff"`
	Lines             accounting.Lines          `json:"lines"`
	Narration         string                    `json:"narration" validate:"max=1000"`
	Reference         string                    `json:"reference" validate:"max=120"`
	StockDirection    accounting.StockDirection `json:"stockDirection" validate:"omitempty,oneof=in out"`
	UpdateStock       bool                      `json:"updateStock"`
	IdempotencyKey    string                    `json:"idempotencyKey" validate:"max=200"`
}

// Payload converts the request into the domain payload.
func (r VoucherRequest) Payload() (accounting.Payload, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return accounting.Payload{}, fmt.Errorf("%w: date: %v", httpx.ErrBadRequest, err)
	}
	p := accounting.Payload{
		VoucherType:       r.VoucherType,
		Date:              date,
		PartyID:           r.PartyID,
		CashBankAccountID: r.CashBankAccountID,
		FromAccountID:     r.FromAccountID,
		ToAccountID:       r.ToAccountID,
		Amount:            r.Amount,
		GSTType:           r.GSTType,
		RoundOff:          r.RoundOff,
		Lines:             r.Lines,
		Narration:         r.Narration,
		Reference:         r.Reference,
		StockDirection:    r.StockDirection,
		UpdateStock:       r.UpdateStock,
		IdempotencyKey:    r.IdempotencyKey,
	}
	if r.DueDate != "" {
		due, err := time.Parse(dateLayout, r.DueDate)
		if err != nil {
			return accounting.Payload{}, fmt.Errorf("%w: dueDate: %v", httpx.ErrBadRequest, err)
		}
		p.DueDate = &due
	}
	return p, nil
}

// VoidRequest is the optional body of a void call.
type VoidRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
