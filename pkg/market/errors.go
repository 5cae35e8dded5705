package market

import "errors"

// Pipeline error kinds. Callers match these with errors.Is; every error
// returned by this package and by pkg/rank wraps exactly one of them.
var (
	// ErrInvalidArgument means a caller-supplied parameter violated a
	// precondition. Detected before any I/O and never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRetrievalFailure wraps a transport or parse error raised by the
	// upstream data source.
	ErrRetrievalFailure = errors.New("retrieval failed")

	// ErrDataUnavailable means the call succeeded but produced zero usable
	// rows or columns after normalization.
	ErrDataUnavailable = errors.New("no price data available")

	// ErrTickerNotFound means a summary ticker is missing from the price
	// table handed to reshaping. The two inputs are inconsistent.
	ErrTickerNotFound = errors.New("ticker not found in price table")
)
