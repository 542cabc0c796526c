// Package catalog exposes the read side of company, party, product and unit
// master data consumed by the posting engine.
package catalog

import (
	"errors"
	"time"
	_ "time/tzdata"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
)

// PartyKind enumerates party roles.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
	PartyBoth     PartyKind = "both"
)

// Address is the postal address of a party or company.
type Address struct {
	Line1   string `json:"line1,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// Company holds the tenant settings relevant to posting.
type Company struct {
	ID                   int64                             `json:"id"`
	Name                 string                            `json:"name"`
	FiscalYearStartMonth int                               `json:"fiscalYearStartMonth"`
	Timezone             string                            `json:"timezone"`
	Currency             string                            `json:"currency"`
	Headquarters         Address                           `json:"headquarters"`
	AllowNegativeStock   bool                              `json:"allowNegativeStock"`
	VoucherPrefixes      map[accounting.VoucherType]string `json:"voucherPrefixes,omitempty"`
}

// Location resolves the company timezone; unknown or empty names fall back to UTC.
func (c Company) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Party is a customer or supplier with a dedicated ledger account.
type Party struct {
	ID                int64     `json:"id"`
	TenantID          int64     `json:"tenantId"`
	Name              string    `json:"name"`
	Kind              PartyKind `json:"kind"`
	LedgerAccountID   int64     `json:"ledgerAccountId"`
	CreditDaysDefault int       `json:"creditDaysDefault"`
	TaxID             string    `json:"taxId,omitempty"`
	Address           Address   `json:"address"`
	IsDeleted         bool      `json:"-"`
}

var (
	// ErrCompanyNotFound indicates the tenant has no company record.
	ErrCompanyNotFound = errors.New("catalog: company not found")
	// ErrPartyNotFound indicates a missing or deleted party.
	ErrPartyNotFound = errors.New("catalog: party not found")
)
