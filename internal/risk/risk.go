// Package risk sizes positions and gates how much the scanner may deploy per trade.
package risk

import (
	"github.com/shopspring/decimal"

	"scanbot/internal/broker"
)

// Shares converts a fixed capital allocation at the given price into a whole-share
// quantity, flooring at one share. Callers must not invoke this with price <= 0;
// a missing or zero price means the symbol is skipped before sizing.
func Shares(capitalPerTrade, price float64) int {
	qty := int(capitalPerTrade / price)
	if qty < 1 {
		qty = 1
	}
	return qty
}

var hundred = decimal.NewFromInt(100)

// Targets computes take-profit and stop-loss prices from percentage offsets,
// rounded to two decimal places. A BUY takes profit above and stops below the
// entry; a SELL is mirrored.
func Targets(side broker.Side, price, tpPct, slPct float64) (takeProfit, stopLoss float64) {
	px := decimal.NewFromFloat(price)
	tpFrac := decimal.NewFromFloat(tpPct).Div(hundred)
	slFrac := decimal.NewFromFloat(slPct).Div(hundred)

	one := decimal.NewFromInt(1)
	var tp, sl decimal.Decimal
	if side == broker.Sell {
		tp = px.Mul(one.Sub(tpFrac))
		sl = px.Mul(one.Add(slFrac))
	} else {
		tp = px.Mul(one.Add(tpFrac))
		sl = px.Mul(one.Sub(slFrac))
	}
	takeProfit, _ = tp.Round(2).Float64()
	stopLoss, _ = sl.Round(2).Float64()
	return takeProfit, stopLoss
}

// Round2 normalizes a price to the fixed two-decimal currency precision.
func Round2(price float64) float64 {
	out, _ := decimal.NewFromFloat(price).Round(2).Float64()
	return out
}

// Limits encodes guard-rails for how much size a single trade may take on.
type Limits struct {
	MaxNotionalPerTrade float64
}

// Allow reports whether the notional fits under the per-trade cap.
// A zero cap means uncapped.
func (l Limits) Allow(notional float64) bool {
	return l.MaxNotionalPerTrade <= 0 || notional <= l.MaxNotionalPerTrade
}
