// Package signal standardizes payloads shared between market data and strategy layers.
package signal

import "time"

// Decision is the outcome of a strategy evaluation.
type Decision string

const (
	// Buy indicates the strategy wants a long entry.
	Buy Decision = "BUY"
	// Hold indicates no action for this symbol this run.
	Hold Decision = "HOLD"
	// Sell is defined for symmetry; the scanning strategies never emit it.
	Sell Decision = "SELL"
)

// Bar is one OHLCV sample for a fixed interval.
type Bar struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ordered run of bars, ascending by timestamp, no duplicates.
type Series []Bar

// Closes returns the closing prices in bar order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volumes in bar order.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Last returns the most recent bar and whether the series is non-empty.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Signal expresses a strategy decision for one symbol at one point in time.
type Signal struct {
	Symbol   string
	Decision Decision
	Reason   string
	Ts       time.Time
}
