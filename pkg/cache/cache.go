// Package cache provides a time-bounded memoization of history fetches,
// so a dashboard refreshing every few seconds does not hammer the
// upstream data source. The core retrieval code stays cache-unaware.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"topstocks/pkg/market"
)

// FetchFunc is the retrieval call being memoized, typically
// (*market.Service).FetchHistory.
type FetchFunc func(ctx context.Context, tickers []string, days int) (*market.PriceTable, error)

// Fetcher memoizes successful fetch results for a fixed TTL, keyed by
// the normalized ticker tuple and day count. Errors are never cached.
// Safe for concurrent use.
type Fetcher struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	table     *market.PriceTable
	fetchedAt time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock overrides the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New creates a memoizing fetcher around fetch with the given TTL.
func New(fetch FetchFunc, ttl time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the cached table for (tickers, days) when a fresh entry
// exists, otherwise it calls through and stores the result.
func (f *Fetcher) Fetch(ctx context.Context, tickers []string, days int) (*market.PriceTable, error) {
	key := cacheKey(tickers, days)

	f.mu.Lock()
	if e, ok := f.entries[key]; ok && f.now().Sub(e.fetchedAt) < f.ttl {
		f.mu.Unlock()
		return e.table, nil
	}
	f.mu.Unlock()

	table, err := f.fetch(ctx, tickers, days)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.entries[key] = entry{table: table, fetchedAt: f.now()}
	f.mu.Unlock()
	return table, nil
}

// cacheKey normalizes tickers the same way retrieval does, so " aapl "
// and "AAPL" hit the same entry. Order is preserved: the key is a tuple,
// not a set.
func cacheKey(tickers []string, days int) string {
	parts := make([]string, 0, len(tickers)+1)
	for _, tk := range tickers {
		tk = strings.ToUpper(strings.TrimSpace(tk))
		if tk == "" {
			continue
		}
		parts = append(parts, tk)
	}
	return strings.Join(parts, ",") + "|" + strconv.Itoa(days)
}
