package accounts

import (
	"errors"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// System account codes provisioned for every tenant.
const (
	CodeCash                = "SYS-CASH"
	CodeBank                = "SYS-BANK"
	CodeSales               = "SYS-SALES"
	CodeSalesReturn         = "SYS-SALES-RETURN"
	CodePurchases           = "SYS-PURCHASES"
	CodePurchaseReturn      = "SYS-PURCHASE-RETURN"
	CodeInventory           = "SYS-INVENTORY"
	CodeCOGS                = "SYS-COGS"
	CodeInventoryAdjustment = "SYS-INVENTORY-ADJ"
	CodeInputCGST           = "SYS-INPUT-CGST"
	CodeInputSGST           = "SYS-INPUT-SGST"
	CodeInputIGST           = "SYS-INPUT-IGST"
	CodeOutputCGST          = "SYS-OUTPUT-CGST"
	CodeOutputSGST          = "SYS-OUTPUT-SGST"
	CodeOutputIGST          = "SYS-OUTPUT-IGST"
	CodeRoundOff            = "SYS-ROUND-OFF"
	CodeOpeningEquity       = "SYS-OPENING-EQUITY"
)

// Groups used by the system chart.
const (
	GroupCashBank       = "cash_bank"
	GroupCurrentAssets  = "current_assets"
	GroupDutiesTaxes    = "duties_taxes"
	GroupSales          = "sales"
	GroupPurchases      = "purchases"
	GroupDirectExpenses = "direct_expenses"
	GroupIndirect       = "indirect_expenses"
	GroupCapital        = "capital"
)

// SystemAccount describes a predefined chart entry.
type SystemAccount struct {
	Code  string
	Name  string
	Type  accounting.AccountType
	Group string
}

// SystemAccounts returns the chart provisioned for each tenant.
func SystemAccounts() []SystemAccount {
	return []SystemAccount{
		{Code: CodeCash, Name: "Cash", Type: accounting.AccountTypeAsset, Group: GroupCashBank},
		{Code: CodeBank, Name: "Bank", Type: accounting.AccountTypeAsset, Group: GroupCashBank},
		{Code: CodeInventory, Name: "Inventory", Type: accounting.AccountTypeAsset, Group: GroupCurrentAssets},
		{Code: CodeInputCGST, Name: "Input CGST", Type: accounting.AccountTypeAsset, Group: GroupDutiesTaxes},
		{Code: CodeInputSGST, Name: "Input SGST", Type: accounting.AccountTypeAsset, Group: GroupDutiesTaxes},
		{Code: CodeInputIGST, Name: "Input IGST", Type: accounting.AccountTypeAsset, Group: GroupDutiesTaxes},
		{Code: CodeOutputCGST, Name: "Output CGST", Type: accounting.AccountTypeLiability, Group: GroupDutiesTaxes},
		{Code: CodeOutputSGST, Name: "Output SGST", Type: accounting.AccountTypeLiability, Group: GroupDutiesTaxes},
		{Code: CodeOutputIGST, Name: "Output IGST", Type: accounting.AccountTypeLiability, Group: GroupDutiesTaxes},
		{Code: CodeSales, Name: "Sales", Type: accounting.AccountTypeIncome, Group: GroupSales},
		{Code: CodeSalesReturn, Name: "Sales Return", Type: accounting.AccountTypeIncome, Group: GroupSales},
		{Code: CodePurchases, Name: "Purchases", Type: accounting.AccountTypeExpense, Group: GroupPurchases},
		{Code: CodePurchaseReturn, Name: "Purchase Return", Type: accounting.AccountTypeExpense, Group: GroupPurchases},
		{Code: CodeCOGS, Name: "Cost of Goods Sold", Type: accounting.AccountTypeExpense, Group: GroupDirectExpenses},
		{Code: CodeInventoryAdjustment, Name: "Inventory Adjustment", Type: accounting.AccountTypeExpense, Group: GroupDirectExpenses},
		{Code: CodeRoundOff, Name: "Round Off", Type: accounting.AccountTypeExpense, Group: GroupIndirect},
		{Code: CodeOpeningEquity, Name: "Opening Balance Equity", Type: accounting.AccountTypeEquity, Group: GroupCapital},
	}
}

// ErrSystemAccountImmutable is returned when a system account is edited or deleted.
var ErrSystemAccountImmutable = errors.New("accounts: system accounts cannot be modified")

// Chart resolves system accounts of a tenant by code.
type Chart struct {
	TenantID int64
	byCode   map[string]accounting.Account
	byID     map[int64]accounting.Account
}

// NewChart indexes the supplied accounts.
func NewChart(tenantID int64, list []accounting.Account) Chart {
	c := Chart{
		TenantID: tenantID,
		byCode:   make(map[string]accounting.Account, len(list)),
		byID:     make(map[int64]accounting.Account, len(list)),
	}
	for _, a := range list {
		if a.IsDeleted {
			continue
		}
		c.byCode[a.Code] = a
		c.byID[a.ID] = a
	}
	return c
}

// Require returns the system account for code or a system integrity error.
func (c Chart) Require(code string) (accounting.Account, error) {
	a, ok := c.byCode[code]
	if !ok || !a.IsSystem {
		return accounting.Account{}, shared.Integrity("accounts.chart", "system account %s missing for tenant %d", code, c.TenantID)
	}
	return a, nil
}

// ID is a shorthand for Require(code).ID.
func (c Chart) ID(code string) (int64, error) {
	a, err := c.Require(code)
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// Lookup finds an active account of the tenant by id.
func (c Chart) Lookup(id int64) (accounting.Account, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Missing lists the system codes absent from the chart.
func (c Chart) Missing() []string {
	var out []string
	for _, sa := range SystemAccounts() {
		if _, err := c.Require(sa.Code); err != nil {
			out = append(out, sa.Code)
		}
	}
	return out
}
