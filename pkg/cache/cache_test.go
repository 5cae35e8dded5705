package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topstocks/pkg/market"
)

type countingFetch struct {
	calls int
	err   error
	table *market.PriceTable
}

func (c *countingFetch) fetch(ctx context.Context, tickers []string, days int) (*market.PriceTable, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.table, nil
}

func testTable(t *testing.T) *market.PriceTable {
	t.Helper()
	dates := []time.Time{time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)}
	pt, err := market.NewPriceTable(dates, []string{"AAPL"}, map[string][]float64{"AAPL": {187.5}})
	require.NoError(t, err)
	return pt
}

func TestFetcher_MemoizesWithinTTL(t *testing.T) {
	cf := &countingFetch{table: testTable(t)}
	f := New(cf.fetch, time.Hour)

	ctx := context.Background()
	first, err := f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, cf.calls)
	assert.Same(t, first, second)
}

func TestFetcher_KeyNormalization(t *testing.T) {
	cf := &countingFetch{table: testTable(t)}
	f := New(cf.fetch, time.Hour)

	ctx := context.Background()
	_, err := f.Fetch(ctx, []string{" aapl ", "msft"}, 30)
	require.NoError(t, err)
	_, err = f.Fetch(ctx, []string{"AAPL", "MSFT"}, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, cf.calls, "normalized tuples share an entry")

	// Different day count is a different key.
	_, err = f.Fetch(ctx, []string{"AAPL", "MSFT"}, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, cf.calls)

	// Different order is a different tuple.
	_, err = f.Fetch(ctx, []string{"MSFT", "AAPL"}, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, cf.calls)
}

func TestFetcher_ExpiresAfterTTL(t *testing.T) {
	cf := &countingFetch{table: testTable(t)}

	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	f := New(cf.fetch, time.Hour, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	_, err := f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, cf.calls, "still fresh")

	now = now.Add(2 * time.Minute)
	_, err = f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, cf.calls, "expired entry is refetched")
}

func TestFetcher_ErrorsNotCached(t *testing.T) {
	cf := &countingFetch{err: errors.New("flaky upstream")}
	f := New(cf.fetch, time.Hour)

	ctx := context.Background()
	_, err := f.Fetch(ctx, []string{"AAPL"}, 30)
	require.Error(t, err)
	_, err = f.Fetch(ctx, []string{"AAPL"}, 30)
	require.Error(t, err)
	assert.Equal(t, 2, cf.calls)

	// A later success is cached as usual.
	cf.err = nil
	cf.table = testTable(t)
	_, err = f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)
	_, err = f.Fetch(ctx, []string{"AAPL"}, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, cf.calls)
}
