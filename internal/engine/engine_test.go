package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"scanbot/internal/broker"
	"scanbot/internal/ledger"
	"scanbot/internal/market"
	"scanbot/internal/notify"
	"scanbot/internal/risk"
	"scanbot/internal/signal"
	"scanbot/internal/strategy"
)

type stubPort struct {
	submitted []broker.OrderIntent
	err       error
	funds     float64
	entered   chan struct{}
	block     chan struct{}
}

func (p *stubPort) Name() string { return "stub" }

func (p *stubPort) Submit(_ context.Context, intent broker.OrderIntent) (broker.Ack, error) {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
	p.submitted = append(p.submitted, intent)
	if p.err != nil {
		return broker.Ack{}, p.err
	}
	return broker.Ack{OrderID: "stub-1", Status: "ok"}, nil
}

type fundedPort struct {
	stubPort
}

func (p *fundedPort) AvailableFunds(context.Context) (float64, error) {
	return p.funds, nil
}

type memLog struct {
	records   []ledger.TradeRecord
	appendErr error
}

func (m *memLog) Append(rec ledger.TradeRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memLog) ReadAll() ([]ledger.TradeRecord, error) {
	return m.records, nil
}

type memNotifier struct {
	alerts    []notify.Alert
	summaries [][]ledger.TradeRecord
}

func (m *memNotifier) TradeAlert(_ context.Context, alert notify.Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *memNotifier) DailySummary(_ context.Context, records []ledger.TradeRecord) error {
	m.summaries = append(m.summaries, records)
	return nil
}

func buySeries(n int) signal.Series {
	start := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)
	series := make(signal.Series, 0, n)
	for i := 0; i < n; i++ {
		vol := 100.0
		if i == n-1 {
			vol = 200
		}
		series = append(series, signal.Bar{
			Ts:     start.Add(time.Duration(i) * time.Hour),
			Close:  100 + float64(i),
			Volume: vol,
		})
	}
	return series
}

func newTestEngine(settings Settings, data market.MarketData, port broker.OrderPort, trades TradeLog, notifier notify.Notifier) *Engine {
	return New(settings, data, strategy.NewMomentum(strategy.Params{}), port, trades, notifier, zerolog.Nop())
}

func TestRunOnceRecordsIntentDespiteDispatchFailure(t *testing.T) {
	data := &market.Stub{
		Prices: map[string]float64{"RELIANCE.NS": 333.33, "TCS.NS": 333.33},
		Histories: map[string]signal.Series{
			"RELIANCE.NS": buySeries(40),
			"TCS.NS":      buySeries(40),
		},
	}
	port := &stubPort{err: errors.New("broker down")}
	trades := &memLog{}
	notifier := &memNotifier{}

	eng := newTestEngine(Settings{
		Symbols:         []string{"RELIANCE.NS", "TCS.NS"},
		Live:            true,
		CapitalPerTrade: 1000,
		TakeProfitPct:   2,
		StopLossPct:     1,
	}, data, port, trades, notifier)

	if err := eng.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	if len(port.submitted) != 2 {
		t.Fatalf("expected both symbols dispatched, got %d", len(port.submitted))
	}
	if len(trades.records) != 2 {
		t.Fatalf("expected ledger row per symbol despite failures, got %d", len(trades.records))
	}
	rec := trades.records[0]
	if rec.Qty != 3 || rec.Entry != 333.33 || rec.TakeProfit != 340.00 || rec.StopLoss != 330.00 {
		t.Fatalf("unexpected sizing in record %+v", rec)
	}
	if len(notifier.alerts) != 2 {
		t.Fatalf("expected alert per trade, got %d", len(notifier.alerts))
	}
}

func TestRunOnceSkipsSymbolWithoutPrice(t *testing.T) {
	data := &market.Stub{
		Prices:    map[string]float64{"DEAD.NS": 0},
		Histories: map[string]signal.Series{"DEAD.NS": buySeries(40)},
	}
	port := &stubPort{}
	trades := &memLog{}

	eng := newTestEngine(Settings{
		Symbols:         []string{"DEAD.NS", "GONE.NS"},
		Live:            true,
		CapitalPerTrade: 1000,
		TakeProfitPct:   2,
		StopLossPct:     1,
	}, data, port, trades, &memNotifier{})

	if err := eng.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(port.submitted) != 0 {
		t.Fatalf("expected no dispatch for priceless symbols")
	}
	if len(trades.records) != 0 {
		t.Fatalf("expected no ledger rows for priceless symbols")
	}
}

func TestRunOnceSkipsHold(t *testing.T) {
	series := buySeries(40)
	series[len(series)-1].Volume = 100 // no surge

	data := &market.Stub{
		Prices:    map[string]float64{"FLAT.NS": 500},
		Histories: map[string]signal.Series{"FLAT.NS": series},
	}
	port := &stubPort{}
	trades := &memLog{}

	eng := newTestEngine(Settings{
		Symbols:         []string{"FLAT.NS"},
		Live:            true,
		CapitalPerTrade: 1000,
		TakeProfitPct:   2,
		StopLossPct:     1,
	}, data, port, trades, &memNotifier{})

	if err := eng.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(port.submitted) != 0 || len(trades.records) != 0 {
		t.Fatalf("expected hold to skip dispatch and recording")
	}
}

func TestSimulatedRunRecordsWithoutDispatch(t *testing.T) {
	data := &market.Stub{
		Prices:    map[string]float64{"RELIANCE.NS": 2875.5},
		Histories: map[string]signal.Series{"RELIANCE.NS": buySeries(40)},
	}
	port := &stubPort{}
	trades := &memLog{}
	notifier := &memNotifier{}

	eng := newTestEngine(Settings{
		Symbols:         []string{"RELIANCE.NS"},
		Live:            false,
		CapitalPerTrade: 10000,
		TakeProfitPct:   2,
		StopLossPct:     1,
	}, data, port, trades, notifier)

	if err := eng.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(port.submitted) != 0 {
		t.Fatalf("expected no dispatch in simulated mode")
	}
	if len(trades.records) != 1 {
		t.Fatalf("expected intent recorded in simulated mode, got %d", len(trades.records))
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("expected alert in simulated mode")
	}
}

func TestRunOnceAppliesFundsGate(t *testing.T) {
	data := &market.Stub{
		Prices:    map[string]float64{"RELIANCE.NS": 2875.5},
		Histories: map[string]signal.Series{"RELIANCE.NS": buySeries(40)},
	}
	port := &fundedPort{stubPort: stubPort{funds: 100}}
	trades := &memLog{}

	eng := newTestEngine(Settings{
		Symbols:         []string{"RELIANCE.NS"},
		Live:            true,
		CapitalPerTrade: 10000,
		TakeProfitPct:   2,
		StopLossPct:     1,
	}, data, port, trades, &memNotifier{})

	if err := eng.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(port.submitted) != 0 || len(trades.records) != 0 {
		t.Fatalf("expected unaffordable symbol to be skipped")
	}
}

func TestRunOnceAppliesNotionalCap(t *testing.T) {
	data := &market.Stub{
		Prices:    map[string]float64{"RELIANCE.NS": 2875.5},
		Histories: map[string]signal.Series{"RELIANCE.NS": buySeries(40)},
	}
	port := &stubPort{}
	trades := &memLog{}

	eng := newTestEngine(Settings{
		Symbols:         []string{"RELIANCE.NS"},
		Live:            true,
		CapitalPerTrade: 10000,
		TakeProfitPct:   2,
		StopLossPct:     1,
		Limits:          risk.Limits{MaxNotionalPerTrade: 1000},
	}, data, port, trades, &memNotifier{})

	if err := eng.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(port.submitted) != 0 || len(trades.records) != 0 {
		t.Fatalf("expected capped symbol to be skipped")
	}
}

func TestRunOnceRejectsOverlappingInvocation(t *testing.T) {
	data := &market.Stub{
		Prices:    map[string]float64{"RELIANCE.NS": 2875.5},
		Histories: map[string]signal.Series{"RELIANCE.NS": buySeries(40)},
	}
	port := &stubPort{entered: make(chan struct{}, 1), block: make(chan struct{})}
	eng := newTestEngine(Settings{
		Symbols:         []string{"RELIANCE.NS"},
		Live:            true,
		CapitalPerTrade: 1000,
		TakeProfitPct:   2,
		StopLossPct:     1,
	}, data, port, &memLog{}, &memNotifier{})

	done := make(chan error, 1)
	go func() { done <- eng.RunOnce(context.Background()) }()

	// Wait for the first run to park inside Submit, then try to overlap it.
	<-port.entered
	if err := eng.RunOnce(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}

	close(port.block)
	if err := <-done; err != nil {
		t.Fatalf("first run returned error: %v", err)
	}
}

func TestEmitSummaryFiltersToDay(t *testing.T) {
	trades := &memLog{records: []ledger.TradeRecord{
		{Ts: time.Date(2024, 3, 3, 9, 15, 0, 0, time.UTC), Symbol: "OLD.NS"},
		{Ts: time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC), Symbol: "NEW.NS"},
	}}
	notifier := &memNotifier{}

	eng := newTestEngine(Settings{Symbols: []string{"X"}, CapitalPerTrade: 1, TakeProfitPct: 1, StopLossPct: 1},
		&market.Stub{}, &stubPort{}, trades, notifier)
	eng.now = func() time.Time { return time.Date(2024, 3, 4, 16, 30, 0, 0, time.UTC) }

	if err := eng.EmitSummary(context.Background()); err != nil {
		t.Fatalf("EmitSummary returned error: %v", err)
	}
	if len(notifier.summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(notifier.summaries))
	}
	day := notifier.summaries[0]
	if len(day) != 1 || day[0].Symbol != "NEW.NS" {
		t.Fatalf("unexpected summary contents %+v", day)
	}
}
