package market

// DefaultTickers is a compact, high-liquidity universe across sectors,
// used when the caller does not supply one.
var DefaultTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META",
	"NVDA", "TSLA", "JPM", "V", "PG",
	"UNH", "MA", "HD", "XOM", "CVX",
	"BAC", "KO", "PEP", "DIS", "CSCO",
	"ADBE", "CRM", "NFLX", "INTC", "ORCL",
	"WMT", "COST", "PYPL", "PFE", "ABBV",
	"MCD", "NKE", "T", "VZ", "UPS",
	"BA", "AMD", "IBM", "QCOM", "DHR",
	"AVGO", "TXN", "SBUX", "HON", "LIN",
	"LOW", "MDT", "BMY", "MS", "GS",
}
