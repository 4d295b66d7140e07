package paper

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"scanbot/internal/broker"
	"scanbot/internal/metrics"
)

// Port is an order port that fills against a simulated account.
type Port struct {
	account *Account
	log     zerolog.Logger
	seq     atomic.Int64
}

// NewPort wraps the account as a broker.OrderPort.
func NewPort(account *Account, log zerolog.Logger) *Port {
	return &Port{account: account, log: log}
}

// Name identifies the port in logs and metrics.
func (p *Port) Name() string { return "paper" }

// Submit fills the intent against the simulated account at the intent price.
func (p *Port) Submit(_ context.Context, intent broker.OrderIntent) (broker.Ack, error) {
	if err := p.account.MarketFill(intent.Symbol, intent.Side, intent.Qty, intent.Price); err != nil {
		return broker.Ack{}, err
	}
	metrics.OrdersTotal.WithLabelValues(intent.Symbol, string(intent.Side)).Inc()
	id := fmt.Sprintf("paper-%d", p.seq.Add(1))
	p.log.Info().
		Str("sym", intent.Symbol).
		Str("side", string(intent.Side)).
		Int("qty", intent.Qty).
		Float64("px", intent.Price).
		Str("order_id", id).
		Msg("paper fill")
	return broker.Ack{OrderID: id, Status: "FILLED"}, nil
}

// AvailableFunds reports the account's free cash.
func (p *Port) AvailableFunds(_ context.Context) (float64, error) {
	return p.account.AvailableCash(), nil
}
