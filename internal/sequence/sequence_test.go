package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
)

type memoryStore struct {
	mu   sync.Mutex
	next map[Key]int64
}

func (s *memoryStore) Reserve(_ context.Context, key Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = make(map[Key]int64)
	}
	if s.next[key] == 0 {
		s.next[key] = 1
	}
	n := s.next[key]
	s.next[key]++
	return n, nil
}

func TestFiscalYearKey(t *testing.T) {
	cases := []struct {
		date  string
		start int
		want  string
	}{
		{"2025-04-01", 4, "2025-26"},
		{"2025-03-31", 4, "2024-25"},
		{"2025-12-31", 4, "2025-26"},
		{"2099-06-15", 4, "2099-00"},
		{"2025-03-31", 1, "2025"},
		{"2025-01-01", 1, "2025"},
		{"2025-06-30", 7, "2024-25"},
		{"2025-06-30", 0, "2025-26"},
	}
	for _, tc := range cases {
		date, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		require.Equal(t, tc.want, FiscalYearKey(date, tc.start), tc.date)
	}
}

func TestAllocatorFormatsAndIncrements(t *testing.T) {
	st := &memoryStore{}
	alloc := NewAllocator(0)
	ctx := context.Background()
	key := Key{TenantID: 1, FiscalYearKey: "2025-26", VoucherType: accounting.VoucherSalesInvoice}

	first, err := alloc.Next(ctx, st, key, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Sequence)
	require.Equal(t, "SI-00001", first.Formatted)

	second, err := alloc.Next(ctx, st, key, map[accounting.VoucherType]string{accounting.VoucherSalesInvoice: "INV/"})
	require.NoError(t, err)
	require.Equal(t, "INV/00002", second.Formatted)

	other, err := alloc.Next(ctx, st, Key{TenantID: 1, FiscalYearKey: "2025-26", VoucherType: accounting.VoucherReceipt}, nil)
	require.NoError(t, err)
	require.Equal(t, "RC-00001", other.Formatted)
}

func TestAllocatorConcurrentReservationsAreUnique(t *testing.T) {
	st := &memoryStore{}
	alloc := NewAllocator(3)
	key := Key{TenantID: 7, FiscalYearKey: "2025", VoucherType: accounting.VoucherJournal}

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(context.Background(), st, key, nil)
			require.NoError(t, err)
			mu.Lock()
			seen[n.Formatted] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, 50)
	require.True(t, seen["JV-001"])
	require.True(t, seen["JV-050"])
}
