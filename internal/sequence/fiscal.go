// Package sequence allocates gap-free voucher numbers per fiscal year.
package sequence

import (
	"fmt"
	"time"
)

// DefaultFiscalStartMonth is used when the company has no valid start month.
const DefaultFiscalStartMonth = time.April

// FiscalYearKey returns the fiscal year containing date. A January start gives
// the calendar year ("2025"); any other start month gives "2025-26".
func FiscalYearKey(date time.Time, startMonth int) string {
	if startMonth < 1 || startMonth > 12 {
		startMonth = int(DefaultFiscalStartMonth)
	}
	year := date.Year()
	if int(date.Month()) < startMonth {
		year--
	}
	if startMonth == 1 {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}
