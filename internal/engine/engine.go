// Package engine orchestrates one scheduled scan: decide, size, dispatch, record.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scanbot/internal/broker"
	"scanbot/internal/ledger"
	"scanbot/internal/market"
	"scanbot/internal/metrics"
	"scanbot/internal/notify"
	"scanbot/internal/risk"
	"scanbot/internal/signal"
	"scanbot/internal/strategy"
)

// ErrRunInProgress is returned when a scheduled invocation overlaps a running one.
var ErrRunInProgress = errors.New("engine: run already in progress")

// TradeLog is the slice of the ledger the engine depends on.
type TradeLog interface {
	Append(ledger.TradeRecord) error
	ReadAll() ([]ledger.TradeRecord, error)
}

// Settings carries the per-run trading parameters.
type Settings struct {
	Symbols         []string
	Live            bool
	CapitalPerTrade float64
	TakeProfitPct   float64
	StopLossPct     float64
	LookbackBars    int
	Interval        string
	Limits          risk.Limits
}

// Engine evaluates the configured symbols sequentially once per invocation.
// It keeps no state between invocations beyond the ledger; every failure is
// local to the symbol being processed and the run always completes.
type Engine struct {
	settings Settings
	data     market.MarketData
	strat    strategy.Strategy
	port     broker.OrderPort
	trades   TradeLog
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time

	runMu sync.Mutex
}

// New wires the engine from its ports.
func New(settings Settings, data market.MarketData, strat strategy.Strategy, port broker.OrderPort, trades TradeLog, notifier notify.Notifier, log zerolog.Logger) *Engine {
	if settings.LookbackBars <= 0 {
		settings.LookbackBars = 105
	}
	if settings.Interval == "" {
		settings.Interval = "1h"
	}
	return &Engine{
		settings: settings,
		data:     data,
		strat:    strat,
		port:     port,
		trades:   trades,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// RunOnce processes every configured symbol to completion. Overlapping
// invocations are rejected so a slow run cannot double-submit; cancellation
// between symbols aborts the remainder cleanly.
func (e *Engine) RunOnce(ctx context.Context) error {
	if !e.runMu.TryLock() {
		e.log.Warn().Msg("scan invocation skipped, previous run still active")
		return ErrRunInProgress
	}
	defer e.runMu.Unlock()

	e.log.Info().Int("symbols", len(e.settings.Symbols)).Bool("live", e.settings.Live).Str("strategy", e.strat.Name()).Msg("scan started")
	for _, sym := range e.settings.Symbols {
		if err := ctx.Err(); err != nil {
			e.log.Info().Err(err).Msg("scan aborted")
			return err
		}
		e.scanSymbol(ctx, sym)
	}
	e.log.Info().Msg("scan complete")
	return nil
}

func (e *Engine) scanSymbol(ctx context.Context, sym string) {
	price, err := e.data.LatestPrice(ctx, sym)
	if err != nil || price <= 0 {
		e.log.Warn().Str("sym", sym).Err(err).Float64("px", price).Msg("no usable price, symbol skipped")
		return
	}
	metrics.QuotesTotal.WithLabelValues(sym).Inc()

	series, err := e.data.History(ctx, sym, e.settings.LookbackBars, e.settings.Interval)
	if err != nil {
		e.log.Warn().Str("sym", sym).Err(err).Msg("history unavailable, symbol skipped")
		return
	}

	sig := e.strat.Evaluate(sym, series)
	metrics.SignalsTotal.WithLabelValues(sym, string(sig.Decision)).Inc()
	if sig.Decision == signal.Hold {
		e.log.Debug().Str("sym", sym).Str("reason", sig.Reason).Msg("hold")
		return
	}
	e.log.Info().Str("sym", sym).Str("decision", string(sig.Decision)).Str("reason", sig.Reason).Msg("signal")

	side := broker.Side(sig.Decision)
	entry := risk.Round2(price)
	qty := risk.Shares(e.settings.CapitalPerTrade, price)
	tp, sl := risk.Targets(side, price, e.settings.TakeProfitPct, e.settings.StopLossPct)
	notional := float64(qty) * price

	if !e.settings.Limits.Allow(notional) {
		e.log.Warn().Str("sym", sym).Float64("notional", notional).Msg("notional cap exceeded, symbol skipped")
		return
	}
	if !e.affordable(ctx, sym, notional) {
		return
	}

	intent := broker.OrderIntent{
		Symbol:     sym,
		Side:       side,
		Qty:        qty,
		Price:      entry,
		TakeProfit: tp,
		StopLoss:   sl,
	}

	if e.settings.Live {
		ack, err := e.port.Submit(ctx, intent)
		if err != nil {
			metrics.OrderFailuresTotal.WithLabelValues(e.port.Name()).Inc()
			e.log.Error().Str("sym", sym).Err(err).Msg("order dispatch failed, intent still recorded")
		} else {
			e.log.Info().Str("sym", sym).Str("order_id", ack.OrderID).Str("status", ack.Status).Msg("order acknowledged")
		}
	}

	rec := ledger.TradeRecord{
		Ts:         e.now(),
		Symbol:     sym,
		Side:       side,
		Qty:        qty,
		Entry:      entry,
		TakeProfit: tp,
		StopLoss:   sl,
	}
	if err := e.trades.Append(rec); err != nil {
		e.log.Error().Str("sym", sym).Err(err).Msg("ledger append failed")
	}

	alert := notify.Alert{Symbol: sym, Side: side, Qty: qty, Entry: entry, TakeProfit: tp, StopLoss: sl}
	if err := e.notifier.TradeAlert(ctx, alert); err != nil {
		e.log.Warn().Str("sym", sym).Err(err).Msg("trade alert delivery failed")
	}
}

// affordable applies the funds precondition when the active port can report
// available cash; ports without funds reporting fall back to the notional cap.
func (e *Engine) affordable(ctx context.Context, sym string, notional float64) bool {
	reporter, ok := e.port.(broker.FundsReporter)
	if !ok {
		return true
	}
	funds, err := reporter.AvailableFunds(ctx)
	if err != nil {
		e.log.Warn().Str("sym", sym).Err(err).Msg("funds check unavailable, proceeding on notional cap")
		return true
	}
	if notional > funds {
		e.log.Warn().Str("sym", sym).Float64("notional", notional).Float64("funds", funds).Msg("insufficient funds, symbol skipped")
		return false
	}
	return true
}

// EmitSummary hands the current day's ledger rows to the notifier.
func (e *Engine) EmitSummary(ctx context.Context) error {
	records, err := e.trades.ReadAll()
	if err != nil {
		e.log.Error().Err(err).Msg("ledger read failed")
		return err
	}
	day := ledger.ForDay(records, e.now())
	if err := e.notifier.DailySummary(ctx, day); err != nil {
		e.log.Warn().Err(err).Msg("summary delivery failed")
		return err
	}
	e.log.Info().Int("trades", len(day)).Msg("summary emitted")
	return nil
}
