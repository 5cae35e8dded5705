// Package market fetches daily closing prices for a ticker universe and
// normalizes them into a dense wide-format table ready for ranking.
package market

import (
	"fmt"
	"time"
)

// Close is a single daily closing price as returned by a Provider.
type Close struct {
	Date  time.Time
	Price float64
}

// PriceTable is a dense wide-format table of adjusted closing prices.
// Rows are trading dates in ascending order, columns are tickers in the
// order they were requested. Tables are never mutated after construction.
type PriceTable struct {
	dates   []time.Time
	tickers []string
	columns map[string][]float64 // ticker -> prices aligned with dates
}

// NewPriceTable builds a table from already-aligned columns: every ticker
// must map to exactly one price per date. FetchHistory is the usual
// constructor; this one serves callers that hold normalized data already.
func NewPriceTable(dates []time.Time, tickers []string, columns map[string][]float64) (*PriceTable, error) {
	for _, tk := range tickers {
		col, ok := columns[tk]
		if !ok || len(col) != len(dates) {
			return nil, fmt.Errorf("%w: column %q does not align with %d dates", ErrInvalidArgument, tk, len(dates))
		}
	}
	return &PriceTable{dates: dates, tickers: tickers, columns: columns}, nil
}

// NumRows returns the number of trading dates in the table.
func (t *PriceTable) NumRows() int { return len(t.dates) }

// NumTickers returns the number of ticker columns in the table.
func (t *PriceTable) NumTickers() int { return len(t.tickers) }

// IsEmpty reports whether the table has zero rows or zero columns.
func (t *PriceTable) IsEmpty() bool {
	return len(t.dates) == 0 || len(t.tickers) == 0
}

// Dates returns the trading dates in ascending order.
func (t *PriceTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Tickers returns the ticker columns in table order.
func (t *PriceTable) Tickers() []string {
	out := make([]string, len(t.tickers))
	copy(out, t.tickers)
	return out
}

// StartPrice returns the price of ticker at the first row of the window.
func (t *PriceTable) StartPrice(ticker string) (float64, bool) {
	col, ok := t.columns[ticker]
	if !ok || len(col) == 0 {
		return 0, false
	}
	return col[0], true
}

// EndPrice returns the price of ticker at the last row of the window.
func (t *PriceTable) EndPrice(ticker string) (float64, bool) {
	col, ok := t.columns[ticker]
	if !ok || len(col) == 0 {
		return 0, false
	}
	return col[len(col)-1], true
}

// TrajectoryRow is one long-format observation: a single ticker's price
// on a single date. JSON field names follow the wire format consumed by
// the dashboard chart.
type TrajectoryRow struct {
	Date   time.Time `json:"Date"`
	Ticker string    `json:"ticker"`
	Price  float64   `json:"price"`
}

// LongRows reshapes the table into long format restricted to the given
// tickers, one row per (date, ticker) pair. Rows are emitted ticker-major
// so each ticker's rows stay in chronological order. Any requested ticker
// missing from the table returns ErrTickerNotFound: the allow-list and
// the table were not derived from the same retrieval.
func (t *PriceTable) LongRows(tickers []string) ([]TrajectoryRow, error) {
	rows := make([]TrajectoryRow, 0, len(tickers)*len(t.dates))
	for _, tk := range tickers {
		col, ok := t.columns[tk]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, tk)
		}
		for i, d := range t.dates {
			rows = append(rows, TrajectoryRow{Date: d, Ticker: tk, Price: col[i]})
		}
	}
	return rows, nil
}
