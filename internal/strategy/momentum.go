// Package strategy contains the signal generation logic applied to historical bars.
package strategy

import (
	"fmt"

	"scanbot/internal/signal"
)

// Momentum combines an EMA crossover, a volume surge filter, and the MACD sign
// into a single long-only decision on the most recent bar.
type Momentum struct {
	fastSpan  int
	slowSpan  int
	volWindow int
	volSurge  float64
	macdFast  int
	macdSlow  int
	minBars   int
}

// NewMomentum builds the momentum strategy, falling back to the standard spans
// (EMA 20/50, 20-bar volume average with a 1.2x surge, MACD 12/26) for zero params.
func NewMomentum(p Params) *Momentum {
	m := &Momentum{
		fastSpan:  p.FastSpan,
		slowSpan:  p.SlowSpan,
		volWindow: p.VolumeWindow,
		volSurge:  p.VolumeSurge,
		macdFast:  p.MACDFast,
		macdSlow:  p.MACDSlow,
		minBars:   p.MinBars,
	}
	if m.fastSpan <= 0 {
		m.fastSpan = 20
	}
	if m.slowSpan <= 0 {
		m.slowSpan = 50
	}
	if m.volWindow <= 0 {
		m.volWindow = 20
	}
	if m.volSurge <= 0 {
		m.volSurge = 1.2
	}
	if m.macdFast <= 0 {
		m.macdFast = 12
	}
	if m.macdSlow <= 0 {
		m.macdSlow = 26
	}
	if m.minBars <= 0 {
		m.minBars = 30
	}
	return m
}

// Name returns the identifier used in logs.
func (m *Momentum) Name() string { return "Momentum" }

// Evaluate decides BUY or HOLD from the supplied series. It is a pure function of
// its input: too little history, malformed bars, or an internal panic all map to
// HOLD rather than an error.
func (m *Momentum) Evaluate(symbol string, series signal.Series) (out signal.Signal) {
	out = signal.Signal{Symbol: symbol, Decision: signal.Hold, Reason: "insufficient history"}
	defer func() {
		if r := recover(); r != nil {
			out = signal.Signal{Symbol: symbol, Decision: signal.Hold, Reason: fmt.Sprintf("evaluation error: %v", r)}
		}
	}()

	if len(series) < m.minBars {
		return out
	}
	last, _ := series.Last()
	out.Ts = last.Ts

	closes := series.Closes()
	volumes := series.Volumes()

	fast := ema(closes, m.fastSpan)
	slow := ema(closes, m.slowSpan)
	idx := len(closes) - 1

	volAvg := trailingMean(volumes, m.volWindow)
	macdVal := macd(closes, m.macdFast, m.macdSlow)

	emaUp := fast[idx] > slow[idx]
	volUp := volumes[idx] > m.volSurge*volAvg
	macdUp := macdVal > 0

	if emaUp && volUp && macdUp {
		out.Decision = signal.Buy
		out.Reason = fmt.Sprintf("ema%d>ema%d vol=%.0f/%.0f macd=%.4f", m.fastSpan, m.slowSpan, volumes[idx], volAvg, macdVal)
		return out
	}

	out.Reason = fmt.Sprintf("ema=%t vol=%t macd=%t", emaUp, volUp, macdUp)
	return out
}
