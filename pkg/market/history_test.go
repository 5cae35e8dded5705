package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProvider struct {
	closes map[string][]Close
	err    error

	calls      int
	gotSymbols []string
	gotStart   time.Time
	gotEnd     time.Time
}

func (p *fakeProvider) DailyCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]Close, error) {
	p.calls++
	p.gotSymbols = symbols
	p.gotStart = start
	p.gotEnd = end
	if p.err != nil {
		return nil, p.err
	}
	return p.closes, nil
}

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 0, 0, 0, 0, time.UTC)
}

func series(prices map[int]float64) []Close {
	keys := make([]int, 0, len(prices))
	for d := range prices {
		keys = append(keys, d)
	}
	// Closes may arrive in any order; normalization sorts by date.
	var out []Close
	for _, d := range keys {
		out = append(out, Close{Date: day(d), Price: prices[d]})
	}
	return out
}

func TestFetchHistory_InvalidArguments(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider)

	cases := []struct {
		name    string
		tickers []string
		days    int
	}{
		{"zero days", []string{"AAPL"}, 0},
		{"negative days", []string{"AAPL"}, -1},
		{"empty tickers", nil, 30},
		{"blank tickers", []string{"", "   "}, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FetchHistory(context.Background(), tc.tickers, tc.days)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	// Validation happens before any I/O.
	assert.Equal(t, 0, provider.calls)
}

func TestFetchHistory_NormalizesSymbols(t *testing.T) {
	provider := &fakeProvider{closes: map[string][]Close{
		"AAPL": series(map[int]float64{1: 100, 2: 101}),
	}}
	svc := NewService(provider)

	table, err := svc.FetchHistory(context.Background(), []string{" aapl ", "AAPL", "aapl"}, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, provider.gotSymbols[:1])
	assert.Equal(t, []string{"AAPL"}, table.Tickers(), "duplicates collapse to one column")
}

func TestFetchHistory_PadsRequestWindow(t *testing.T) {
	now := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{closes: map[string][]Close{
		"AAPL": series(map[int]float64{30: 100, 31: 101}),
	}}
	svc := NewService(provider, WithClock(func() time.Time { return now }))

	_, err := svc.FetchHistory(context.Background(), []string{"AAPL"}, 10)
	require.NoError(t, err)

	assert.Equal(t, now, provider.gotEnd)
	assert.Equal(t, now.AddDate(0, 0, -15), provider.gotStart, "window is days+5 calendar days")
}

func TestFetchHistory_DropsEmptyTickersAndSparseRows(t *testing.T) {
	// A has every day, B is missing day 3, C has nothing.
	provider := &fakeProvider{closes: map[string][]Close{
		"A": series(map[int]float64{1: 10, 2: 11, 3: 12, 4: 13, 5: 14}),
		"B": series(map[int]float64{1: 50, 2: 51, 4: 53, 5: 54}),
	}}

	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(provider, WithLogger(zap.New(core)))

	table, err := svc.FetchHistory(context.Background(), []string{"A", "B", "C"}, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, table.Tickers(), "C dropped: no data at all")
	assert.Equal(t, []time.Time{day(1), day(2), day(4), day(5)}, table.Dates(),
		"day 3 dropped: B has a gap there")

	start, ok := table.StartPrice("B")
	require.True(t, ok)
	assert.Equal(t, 50.0, start)
	end, ok := table.EndPrice("B")
	require.True(t, ok)
	assert.Equal(t, 54.0, end)

	// The omission of C is surfaced as a diagnostic.
	entries := logs.FilterMessage("no data returned for some requested tickers").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"C"}, entries[0].ContextMap()["tickers"])
}

func TestFetchHistory_TrimsToTrailingDays(t *testing.T) {
	closes := map[int]float64{}
	for d := 1; d <= 12; d++ {
		closes[d] = float64(100 + d)
	}
	provider := &fakeProvider{closes: map[string][]Close{"AAPL": series(closes)}}
	svc := NewService(provider)

	table, err := svc.FetchHistory(context.Background(), []string{"AAPL"}, 4)
	require.NoError(t, err)

	require.Equal(t, 4, table.NumRows())
	assert.Equal(t, []time.Time{day(9), day(10), day(11), day(12)}, table.Dates())
	start, _ := table.StartPrice("AAPL")
	assert.Equal(t, 109.0, start)
}

func TestFetchHistory_SingleDayWindow(t *testing.T) {
	provider := &fakeProvider{closes: map[string][]Close{
		"AAPL": series(map[int]float64{1: 100, 2: 110}),
	}}
	svc := NewService(provider)

	table, err := svc.FetchHistory(context.Background(), []string{"AAPL"}, 1)
	require.NoError(t, err)

	require.Equal(t, 1, table.NumRows())
	start, _ := table.StartPrice("AAPL")
	end, _ := table.EndPrice("AAPL")
	assert.Equal(t, start, end, "degenerate window: start row is end row")
}

func TestFetchHistory_AllTickersUnavailable(t *testing.T) {
	provider := &fakeProvider{closes: map[string][]Close{}}
	svc := NewService(provider)

	_, err := svc.FetchHistory(context.Background(), []string{"ZZZQ", "XXXW"}, 30)
	require.ErrorIs(t, err, ErrDataUnavailable)
}

func TestFetchHistory_WrapsProviderErrors(t *testing.T) {
	boom := errors.New("connection reset")
	provider := &fakeProvider{err: boom}
	svc := NewService(provider)

	_, err := svc.FetchHistory(context.Background(), []string{"AAPL"}, 30)
	require.ErrorIs(t, err, ErrRetrievalFailure)
	assert.NotErrorIs(t, err, boom, "transport error is re-signaled, not leaked")
	assert.Contains(t, err.Error(), "connection reset")
}
