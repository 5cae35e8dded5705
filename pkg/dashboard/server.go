// Package dashboard serves the ranked leaderboard over HTTP: an HTML
// table for browsers plus JSON endpoints for the summary and per-ticker
// price trajectories.
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"topstocks/pkg/cache"
	"topstocks/pkg/market"
	"topstocks/pkg/rank"
)

// Server renders ranked results fetched through a (typically memoized)
// fetch function.
type Server struct {
	fetch   cache.FetchFunc
	engine  *rank.Engine
	logger  *zap.Logger
	tickers []string
	days    int
	topN    int
	tmpl    *template.Template
}

// Config carries the default query parameters for the dashboard.
type Config struct {
	Tickers []string
	Days    int
	TopN    int
}

// New creates a dashboard server. fetch is usually a cache.Fetcher's
// Fetch method so repeated page loads reuse one upstream call.
func New(fetch cache.FetchFunc, engine *rank.Engine, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		fetch:   fetch,
		engine:  engine,
		logger:  logger,
		tickers: cfg.Tickers,
		days:    cfg.Days,
		topN:    cfg.TopN,
		tmpl:    template.Must(template.New("index").Parse(indexHTML)),
	}
}

// Handler returns the HTTP handler for all dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/trajectory", s.handleTrajectory)
	return s.withRequestLog(mux)
}

// withRequestLog tags every request with a UUID and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type indexData struct {
	Days int
	Rows []indexRow
}

type indexRow struct {
	Rank int
	rank.Row
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	summary, days, err := s.rankForRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data := indexData{Days: days, Rows: make([]indexRow, len(summary))}
	for i, row := range summary {
		data.Rows[i] = indexRow{Rank: i + 1, Row: row}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering leaderboard", zap.Error(err))
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, days, err := s.rankForRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{
		"days":    days,
		"results": summary,
	})
}

func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.writeError(w, fmt.Errorf("%w: ticker query parameter is required", market.ErrInvalidArgument))
		return
	}

	days, err := intParam(r, "days", s.days)
	if err != nil {
		s.writeError(w, err)
		return
	}

	table, err := s.fetch(r.Context(), s.tickers, days)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rows, err := table.LongRows([]string{ticker})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{
		"ticker": ticker,
		"days":   days,
		"points": rows,
	})
}

// rankForRequest runs the fetch+rank pipeline with the server defaults,
// overridable per request via days/top query parameters.
func (s *Server) rankForRequest(r *http.Request) (rank.Summary, int, error) {
	days, err := intParam(r, "days", s.days)
	if err != nil {
		return nil, 0, err
	}
	topN, err := intParam(r, "top", s.topN)
	if err != nil {
		return nil, 0, err
	}

	table, err := s.fetch(r.Context(), s.tickers, days)
	if err != nil {
		return nil, 0, err
	}
	summary, err := s.engine.Rank(table, topN)
	if err != nil {
		return nil, 0, err
	}
	return summary, days, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", market.ErrInvalidArgument, name, v)
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(pretty.Pretty(data))
}

// writeError maps the pipeline error taxonomy onto HTTP statuses. The
// raw error text is surfaced: every kind is already caller-safe.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrTickerNotFound), errors.Is(err, market.ErrDataUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrRetrievalFailure):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("unexpected dashboard error", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Top Stock Performers</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: right; }
th { background: #f0f0f0; }
td.ticker { text-align: left; font-weight: bold; }
td.up { color: #007700; }
td.down { color: #cc0000; }
</style>
</head>
<body>
<h1>Top Stock Performers</h1>
<p>Percentage change over the last {{.Days}} trading days.</p>
<table id="leaderboard">
<thead>
<tr><th>Rank</th><th>Ticker</th><th>Start</th><th>End</th><th>% Change</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.Rank}}</td>
<td class="ticker">{{.Ticker}}</td>
<td>{{printf "%.2f" .StartPrice}}</td>
<td>{{printf "%.2f" .EndPrice}}</td>
<td class="{{if ge .PctChange 0.0}}up{{else}}down{{end}}">{{printf "%+.2f" .PctChange}}%</td>
</tr>{{end}}
</tbody>
</table>
</body>
</html>
`
