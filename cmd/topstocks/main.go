// Command topstocks ranks a universe of tickers by percentage price
// change over a lookback window and prints the top performers, optionally
// sending a desktop notification or serving the results as a dashboard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"topstocks/pkg/cache"
	"topstocks/pkg/dashboard"
	"topstocks/pkg/market"
	"topstocks/pkg/notify"
	"topstocks/pkg/rank"
)

const (
	fetchTimeout = 60 * time.Second
	dashboardTTL = time.Hour
)

func main() {
	days := flag.Int("days", 30, "Lookback window in days")
	topN := flag.Int("top", 10, "How many tickers to display")
	tickersArg := flag.String("tickers", "", "Universe of tickers to evaluate, space separated (default: built-in 50-symbol universe)")
	doNotify := flag.Bool("notify", false, "Send a desktop notification summarizing the top results")
	jsonOut := flag.Bool("json", false, "Print the summary as JSON instead of a table")
	serveAddr := flag.String("serve", "", "Serve the dashboard on this address (e.g. :8080) instead of printing once")
	providerName := flag.String("provider", "alpaca", "Market data provider: alpaca or chart")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	tickers := market.DefaultTickers
	if strings.TrimSpace(*tickersArg) != "" {
		tickers = strings.Fields(*tickersArg)
	}

	if err := run(logger, *providerName, tickers, *days, *topN, *doNotify, *jsonOut, *serveAddr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger, providerName string, tickers []string, days, topN int, doNotify, jsonOut bool, serveAddr string) error {
	provider, err := buildProvider(providerName, logger)
	if err != nil {
		return err
	}

	service := market.NewService(provider, market.WithLogger(logger))
	engine := rank.NewEngine(rank.WithLogger(logger))

	if serveAddr != "" {
		fetcher := cache.New(service.FetchHistory, dashboardTTL)
		srv := dashboard.New(fetcher.Fetch, engine, dashboard.Config{
			Tickers: tickers,
			Days:    days,
			TopN:    topN,
		}, logger)
		logger.Info("serving dashboard", zap.String("addr", serveAddr))
		return http.ListenAndServe(serveAddr, srv.Handler())
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	table, err := service.FetchHistory(ctx, tickers, days)
	if err != nil {
		return err
	}
	summary, err := engine.Rank(table, topN)
	if err != nil {
		return err
	}

	if jsonOut {
		data, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		os.Stdout.Write(pretty.Pretty(data))
	} else {
		printTable(summary)
	}

	if doNotify {
		if err := notify.Send(notify.DefaultTitle, summary.NotificationText()); err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
	}
	return nil
}

func buildProvider(name string, logger *zap.Logger) (market.Provider, error) {
	switch name {
	case "alpaca":
		apiKey := os.Getenv("ALPACA_API_KEY")
		apiSecret := os.Getenv("ALPACA_SECRET_KEY")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("ALPACA_API_KEY and ALPACA_SECRET_KEY must be set")
		}
		return market.NewAlpacaProvider(apiKey, apiSecret, os.Getenv("ALPACA_DATA_URL")), nil
	case "chart":
		baseURL := os.Getenv("CHART_API_URL")
		if baseURL == "" {
			baseURL = "https://query1.finance.yahoo.com"
		}
		return market.NewChartAPIProvider(baseURL, market.WithChartLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want alpaca or chart)", name)
	}
}

func printTable(summary rank.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Rank\tTicker\tStart\tEnd\t% Change")
	for i, row := range summary {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%+.2f%%\n",
			i+1, row.Ticker, row.StartPrice, row.EndPrice, row.PctChange)
	}
	w.Flush()
}
