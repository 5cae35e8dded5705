// Package rank computes each ticker's percentage price change over a
// window and produces a sorted top-N summary.
package rank

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"topstocks/pkg/market"
)

// Row is one ranked ticker with its window snapshot. Prices and the
// percentage change are rounded to two decimal places, half away from
// zero.
type Row struct {
	Ticker     string  `json:"ticker"`
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
	PctChange  float64 `json:"pct_change"`
}

// Summary is a ranked result set, sorted by PctChange descending.
type Summary []Row

// Tickers returns the ranked symbols in order.
func (s Summary) Tickers() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Ticker
	}
	return out
}

// Engine ranks price tables. The zero value is usable; NewEngine attaches
// a diagnostics logger.
type Engine struct {
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a ranking engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var hundred = decimal.NewFromInt(100)

// Rank computes (end-start)/start*100 for every ticker column and returns
// the topN best performers sorted by percentage change descending. Ties
// keep the table's column order. Tickers whose start price is exactly
// zero have no defined ratio; they are excluded from the ranking with a
// warn diagnostic rather than poisoning the result with infinities.
//
// An empty table returns ErrDataUnavailable even though retrieval already
// guards for it: the engine is also invoked on caller-built tables.
func (e *Engine) Rank(table *market.PriceTable, topN int) (Summary, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top_n must be positive, got %d", market.ErrInvalidArgument, topN)
	}
	if table == nil || table.IsEmpty() {
		return nil, fmt.Errorf("%w: empty price table", market.ErrDataUnavailable)
	}

	logger := e.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rows := make(Summary, 0, table.NumTickers())
	for _, ticker := range table.Tickers() {
		start, _ := table.StartPrice(ticker)
		end, _ := table.EndPrice(ticker)
		if start == 0 {
			logger.Warn("excluding ticker with zero start price", zap.String("ticker", ticker))
			continue
		}

		startDec := decimal.NewFromFloat(start)
		endDec := decimal.NewFromFloat(end)
		pct := endDec.Sub(startDec).Div(startDec).Mul(hundred)

		rows = append(rows, Row{
			Ticker:     ticker,
			StartPrice: roundCents(startDec),
			EndPrice:   roundCents(endDec),
			PctChange:  roundCents(pct),
		})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no ticker had a usable start price", market.ErrDataUnavailable)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PctChange > rows[j].PctChange
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows, nil
}

// roundCents rounds to two decimal places, half away from zero.
func roundCents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
