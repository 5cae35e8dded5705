package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// calendarPadding widens the requested window so weekends and holidays
// still leave enough trading rows after trimming to the last `days`.
const calendarPadding = 5

// Provider supplies raw daily closes for a set of symbols. The returned
// map may be sparse and ragged: symbols with no data may be absent, and
// series may have gaps. Normalization happens in FetchHistory, never in
// the provider.
type Provider interface {
	DailyCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]Close, error)
}

// Service fetches and normalizes price history from a Provider.
type Service struct {
	provider Provider
	logger   *zap.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the diagnostics logger. Diagnostics are informational
// only and never affect returned data.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the wall clock used to anchor the fetch window.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a history service backed by the given provider.
func NewService(provider Provider, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchHistory returns a dense table of the last `days` daily closes for
// the given tickers. Tickers are trimmed and upper-cased; blank entries
// are dropped. The upstream window is padded by calendarPadding calendar
// days to absorb non-trading days.
//
// Tickers that yield no data at all are dropped from the table and logged
// at warn level. Dates where any surviving ticker is missing a value are
// dropped entirely, so the result never contains gaps.
func (s *Service) FetchHistory(ctx context.Context, tickers []string, days int) (*PriceTable, error) {
	symbols, err := normalizeTickers(tickers)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidArgument, days)
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -(days + calendarPadding))

	raw, err := s.provider.DailyCloses(ctx, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailure, err)
	}

	table := buildTable(symbols, raw, days)

	if missing := missingSymbols(symbols, table.tickers); len(missing) > 0 {
		s.logger.Warn("no data returned for some requested tickers",
			zap.Strings("tickers", missing),
			zap.Int("requested", len(symbols)),
			zap.Int("retrieved", table.NumTickers()),
		)
	}

	if table.IsEmpty() {
		return nil, fmt.Errorf("%w: none of %s produced usable rows", ErrDataUnavailable, strings.Join(symbols, " "))
	}
	return table, nil
}

// normalizeTickers trims and upper-cases symbols, dropping blanks. An
// empty result is an argument error, not a data error.
func normalizeTickers(tickers []string) ([]string, error) {
	symbols := make([]string, 0, len(tickers))
	for _, tk := range tickers {
		tk = strings.ToUpper(strings.TrimSpace(tk))
		if tk == "" {
			continue
		}
		symbols = append(symbols, tk)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: ticker list is empty", ErrInvalidArgument)
	}
	return symbols, nil
}

const dayKeyFormat = "2006-01-02"

// buildTable normalizes sparse provider output into a dense table:
//  1. drop tickers (columns) with no data at all, keeping request order
//  2. drop dates (rows) where any surviving ticker is missing a value
//  3. keep only the trailing `days` rows
func buildTable(order []string, raw map[string][]Close, days int) *PriceTable {
	seen := make(map[string]bool, len(order))
	var survivors []string
	byTicker := make(map[string]map[string]float64, len(order))
	dateSet := make(map[string]time.Time)

	for _, tk := range order {
		if seen[tk] {
			continue
		}
		closes := raw[tk]
		if len(closes) == 0 {
			continue
		}
		seen[tk] = true
		survivors = append(survivors, tk)

		byDate := make(map[string]float64, len(closes))
		for _, c := range closes {
			day := c.Date.UTC()
			key := day.Format(dayKeyFormat)
			byDate[key] = c.Price
			if _, ok := dateSet[key]; !ok {
				dateSet[key] = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
		byTicker[tk] = byDate
	}

	keys := make([]string, 0, len(dateSet))
	for k := range dateSet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var kept []string
	for _, k := range keys {
		complete := true
		for _, tk := range survivors {
			if _, ok := byTicker[tk][k]; !ok {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, k)
		}
	}
	if len(kept) > days {
		kept = kept[len(kept)-days:]
	}

	dates := make([]time.Time, len(kept))
	for i, k := range kept {
		dates[i] = dateSet[k]
	}
	columns := make(map[string][]float64, len(survivors))
	for _, tk := range survivors {
		col := make([]float64, len(kept))
		for i, k := range kept {
			col[i] = byTicker[tk][k]
		}
		columns[tk] = col
	}

	return &PriceTable{dates: dates, tickers: survivors, columns: columns}
}

// missingSymbols returns requested symbols absent from retrieved, in
// request order, deduplicated.
func missingSymbols(requested, retrieved []string) []string {
	have := make(map[string]bool, len(retrieved))
	for _, tk := range retrieved {
		have[tk] = true
	}
	var missing []string
	reported := make(map[string]bool, len(requested))
	for _, tk := range requested {
		if !have[tk] && !reported[tk] {
			missing = append(missing, tk)
			reported[tk] = true
		}
	}
	return missing
}
