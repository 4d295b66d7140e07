package strategy

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ema computes an adjusted-weight exponential moving average with the given span.
// Each point uses only bars up to and including itself (no look-ahead); early points
// are weighted over the history seen so far rather than seeded from a plain average.
func ema(values []float64, span int) []float64 {
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	out := make([]float64, len(values))
	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// trailingMean averages the last window elements, NaN when there are too few.
func trailingMean(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return math.NaN()
	}
	return stat.Mean(values[len(values)-window:], nil)
}

// macd returns fastEMA-slowEMA of the closing prices at the most recent point.
func macd(closes []float64, fastSpan, slowSpan int) float64 {
	if len(closes) == 0 {
		return math.NaN()
	}
	fast := ema(closes, fastSpan)
	slow := ema(closes, slowSpan)
	last := len(closes) - 1
	return fast[last] - slow[last]
}
