package catalog

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a unit of measure with its factor to the product base unit.
type Unit struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	ConversionFactor decimal.Decimal `json:"conversionFactor"`
}

// Units looks units up by id, name or symbol.
type Units struct {
	index map[string]Unit
}

// NewUnits indexes the catalog. Later entries do not override earlier keys.
func NewUnits(list []Unit) Units {
	u := Units{index: make(map[string]Unit, len(list)*3)}
	for _, unit := range list {
		for _, k := range []string{strconv.FormatInt(unit.ID, 10), unit.Name, unit.Symbol} {
			k = unitKey(k)
			if k == "" {
				continue
			}
			if _, ok := u.index[k]; !ok {
				u.index[k] = unit
			}
		}
	}
	return u
}

// Factor returns the conversion factor for ref, or 1 when unresolved.
func (u Units) Factor(ref string) decimal.Decimal {
	unit, ok := u.index[unitKey(ref)]
	if !ok || !unit.ConversionFactor.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return unit.ConversionFactor
}

func unitKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
