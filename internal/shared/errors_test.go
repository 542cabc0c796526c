package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("inventory: insufficient stock")

func TestErrorKindMatching(t *testing.T) {
	err := Conflict("vouchers.update", "voucher %d is voided", 7)
	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "voucher 7 is voided")

	wrapped := fmt.Errorf("outer: %w", Wrap(ErrConflict, "inventory.out", errSentinel))
	require.ErrorIs(t, wrapped, ErrConflict)
	require.ErrorIs(t, wrapped, errSentinel)
	require.Nil(t, Wrap(ErrConflict, "noop", nil))
}

func TestRounding(t *testing.T) {
	require.Equal(t, "2.35", Round2(decimal.RequireFromString("2.345")).String())
	require.Equal(t, "-2.35", Round2(decimal.RequireFromString("-2.345")).String())
	require.Equal(t, "1.333333", RoundQty(decimal.NewFromInt(4).Div(decimal.NewFromInt(3)), 0).String())
	require.Equal(t, "90", Percent(decimal.NewFromInt(500), decimal.NewFromInt(18)).String())
	require.True(t, MaxZero(decimal.NewFromInt(-3)).IsZero())
}

func TestPageRequest(t *testing.T) {
	p := PageRequest{Page: 3, PerPage: 500}.Normalize()
	require.Equal(t, 200, p.PerPage)
	require.Equal(t, 400, PageRequest{Page: 3, PerPage: 500}.Offset())
	require.Equal(t, 0, PageRequest{}.Offset())
}
