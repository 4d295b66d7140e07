// Package notify delivers trade alerts and daily summaries to external channels.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"scanbot/internal/broker"
	"scanbot/internal/ledger"
)

// Alert carries the details of one signal-triggered evaluation.
type Alert struct {
	Symbol     string
	Side       broker.Side
	Qty        int
	Entry      float64
	TakeProfit float64
	StopLoss   float64
}

// Notifier is the hook the orchestrator calls after recording a trade and when
// a daily summary is requested. Delivery failures are the caller's to log;
// they never stop a run.
type Notifier interface {
	TradeAlert(ctx context.Context, alert Alert) error
	DailySummary(ctx context.Context, records []ledger.TradeRecord) error
}

// LogNotifier writes alerts and summaries to the structured log. It is the
// fallback channel when no external delivery is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier wraps a zerolog logger.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// TradeAlert logs the alert payload.
func (n *LogNotifier) TradeAlert(_ context.Context, alert Alert) error {
	n.log.Info().
		Str("sym", alert.Symbol).
		Str("side", string(alert.Side)).
		Int("qty", alert.Qty).
		Float64("entry", alert.Entry).
		Float64("tp", alert.TakeProfit).
		Float64("sl", alert.StopLoss).
		Msg("trade alert")
	return nil
}

// DailySummary logs the record count for the day.
func (n *LogNotifier) DailySummary(_ context.Context, records []ledger.TradeRecord) error {
	n.log.Info().Int("trades", len(records)).Msg("daily summary")
	return nil
}

// Multi fans out to several notifiers, returning the first error after trying all.
type Multi []Notifier

// TradeAlert delivers to every notifier.
func (m Multi) TradeAlert(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.TradeAlert(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DailySummary delivers to every notifier.
func (m Multi) DailySummary(ctx context.Context, records []ledger.TradeRecord) error {
	var firstErr error
	for _, n := range m {
		if err := n.DailySummary(ctx, records); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
