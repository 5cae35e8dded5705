package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaProvider retrieves daily adjusted bars from the Alpaca market
// data API. It is the default upstream source.
type AlpacaProvider struct {
	client *marketdata.Client
}

// NewAlpacaProvider creates a provider with the given credentials. An
// empty baseURL uses the SDK default.
func NewAlpacaProvider(apiKey, apiSecret, baseURL string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaProvider{client: marketdata.NewClient(opts)}
}

// DailyCloses fetches one-day bars for all symbols in a single request.
// Alpaca's End is exclusive for daily bars, so one day is added to
// include bars on the end date itself. Symbols without data are simply
// absent from the result.
func (p *AlpacaProvider) DailyCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]Close, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	multiBars, err := p.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	closes := make(map[string][]Close, len(multiBars))
	for symbol, bars := range multiBars {
		series := make([]Close, 0, len(bars))
		for _, b := range bars {
			series = append(series, Close{Date: b.Timestamp, Price: b.Close})
		}
		closes[strings.ToUpper(symbol)] = series
	}
	return closes, nil
}
