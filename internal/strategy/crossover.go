package strategy

import (
	"fmt"

	"scanbot/internal/signal"
)

// Crossover is a simpler long-only strategy using the EMA crossover alone,
// without the volume or MACD confirmation filters.
type Crossover struct {
	fastSpan int
	slowSpan int
	minBars  int
}

// NewCrossover builds the crossover strategy with the same span defaults as Momentum.
func NewCrossover(p Params) *Crossover {
	c := &Crossover{fastSpan: p.FastSpan, slowSpan: p.SlowSpan, minBars: p.MinBars}
	if c.fastSpan <= 0 {
		c.fastSpan = 20
	}
	if c.slowSpan <= 0 {
		c.slowSpan = 50
	}
	if c.minBars <= 0 {
		c.minBars = 30
	}
	return c
}

// Name returns the identifier used in logs.
func (c *Crossover) Name() string { return "Crossover" }

// Evaluate returns BUY when the fast EMA sits above the slow EMA on the last bar.
func (c *Crossover) Evaluate(symbol string, series signal.Series) (out signal.Signal) {
	out = signal.Signal{Symbol: symbol, Decision: signal.Hold, Reason: "insufficient history"}
	defer func() {
		if r := recover(); r != nil {
			out = signal.Signal{Symbol: symbol, Decision: signal.Hold, Reason: fmt.Sprintf("evaluation error: %v", r)}
		}
	}()

	if len(series) < c.minBars {
		return out
	}
	last, _ := series.Last()
	out.Ts = last.Ts

	closes := series.Closes()
	fast := ema(closes, c.fastSpan)
	slow := ema(closes, c.slowSpan)
	idx := len(closes) - 1

	if fast[idx] > slow[idx] {
		out.Decision = signal.Buy
		out.Reason = fmt.Sprintf("ema%d=%.2f > ema%d=%.2f", c.fastSpan, fast[idx], c.slowSpan, slow[idx])
		return out
	}
	out.Reason = fmt.Sprintf("ema%d=%.2f <= ema%d=%.2f", c.fastSpan, fast[idx], c.slowSpan, slow[idx])
	return out
}
