// Package marketdata defines the contract the dashboard core needs from a
// market data provider: daily close histories, a batched multi-symbol
// history panel, and per-symbol fundamentals snapshots.
package marketdata

import (
	"context"
	"time"
)

// Bar is one daily close observation.
type Bar struct {
	Date  time.Time
	Close float64
}

// PriceSeries is an ascending-by-date close series for one symbol, with no
// duplicate dates.
type PriceSeries []Bar

// Last returns the most recent close, or false when the series is empty.
func (s PriceSeries) Last() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Close, true
}

// ChangePercent computes the percentage change between the last close and
// the close `offset` trading periods earlier. A series too short for the
// offset reports 0 rather than an error: the dashboard treats insufficient
// history as "flat", not as a failure.
func (s PriceSeries) ChangePercent(offset int) float64 {
	if offset <= 0 || len(s) <= offset {
		return 0
	}
	base := s[len(s)-1-offset].Close
	if base == 0 {
		return 0
	}
	return (s[len(s)-1].Close - base) / base * 100
}

// Fundamentals is a point-in-time snapshot of the valuation and dividend
// metrics an instrument publishes. Not every instrument publishes every
// metric, so numeric fields are pointers and stay nil when absent.
type Fundamentals struct {
	Symbol         string
	LongName       string
	ShortName      string
	QuoteType      string
	Currency       string
	TrailingPE     *float64
	ForwardPE      *float64
	PEGRatio       *float64
	MarketCap      *float64
	Beta           *float64
	DividendYield  *float64
	ExDividendDate *int64 // unix epoch seconds
	Bid            *float64
	Ask            *float64
}

// Provider is the upstream market data source. BatchHistory must issue a
// single batched request per call (chunked internally if needed) rather
// than one request per symbol.
type Provider interface {
	History(ctx context.Context, symbol, rng string) (PriceSeries, error)
	Fundamentals(ctx context.Context, symbol string) (*Fundamentals, error)
	BatchHistory(ctx context.Context, symbols []string, rng string) (map[string]PriceSeries, error)
}
