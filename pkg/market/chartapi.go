package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// ChartAPIProvider fetches daily closes from a chart-style HTTP JSON
// endpoint, one request per symbol. The per-symbol response is a flat
// series rather than a table; assembling those series into the provider
// map is what keeps the shape difference from leaking downstream.
//
// Bodies run through jsonrepair before unmarshaling: these endpoints are
// known to emit truncated or loosely quoted JSON under load.
type ChartAPIProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ChartAPIOption configures a ChartAPIProvider.
type ChartAPIOption func(*ChartAPIProvider)

// WithChartHTTPClient sets a custom HTTP client.
func WithChartHTTPClient(hc *http.Client) ChartAPIOption {
	return func(p *ChartAPIProvider) { p.httpClient = hc }
}

// WithChartLogger sets the diagnostics logger.
func WithChartLogger(logger *zap.Logger) ChartAPIOption {
	return func(p *ChartAPIProvider) { p.logger = logger }
}

// NewChartAPIProvider creates a provider rooted at baseURL, e.g.
// "https://query1.finance.yahoo.com".
func NewChartAPIProvider(baseURL string, opts ...ChartAPIOption) *ChartAPIProvider {
	p := &ChartAPIProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses fetches each symbol's daily series sequentially. Unknown
// symbols (HTTP 404) are skipped so one bad ticker cannot sink the batch;
// any other failure aborts the whole call.
func (p *ChartAPIProvider) DailyCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]Close, error) {
	closes := make(map[string][]Close, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, found, err := p.fetchSymbol(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", symbol, err)
		}
		if !found {
			p.logger.Debug("symbol unknown to chart API", zap.String("symbol", symbol))
			continue
		}
		closes[symbol] = series
	}
	return closes, nil
}

func (p *ChartAPIProvider) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) ([]Close, bool, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		p.baseURL, symbol, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("chart API returned status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	repaired, err := jsonrepair.JSONRepair(string(body))
	if err != nil {
		return nil, false, fmt.Errorf("unrepairable response body: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, false, fmt.Errorf("decoding chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, false, fmt.Errorf("chart API error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, false, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Adjclose) == 0 {
		return nil, false, nil
	}
	prices := result.Indicators.Adjclose[0].Adjclose

	series := make([]Close, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(prices) || prices[i] == nil {
			continue // gap in the series, dropped during normalization
		}
		series = append(series, Close{
			Date:  time.Unix(ts, 0).UTC(),
			Price: *prices[i],
		})
	}
	return series, true, nil
}
