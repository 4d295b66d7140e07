package strategy

import (
	"math"
	"testing"
	"time"

	"scanbot/internal/signal"
)

func hourlyBars(n int, lastVolume float64) signal.Series {
	start := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)
	series := make(signal.Series, 0, n)
	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)
		vol := 100.0
		if i == n-1 {
			vol = lastVolume
		}
		series = append(series, signal.Bar{
			Ts:     start.Add(time.Duration(i) * time.Hour),
			Open:   price - 0.5,
			High:   price + 0.5,
			Low:    price - 1,
			Close:  price,
			Volume: vol,
		})
	}
	return series
}

func TestMomentumBuyOnRisingSeriesWithVolumeSurge(t *testing.T) {
	strat := NewMomentum(Params{})
	sig := strat.Evaluate("RELIANCE.NS", hourlyBars(40, 200))
	if sig.Decision != signal.Buy {
		t.Fatalf("expected BUY, got %s (%s)", sig.Decision, sig.Reason)
	}
	if sig.Symbol != "RELIANCE.NS" {
		t.Fatalf("unexpected symbol %q", sig.Symbol)
	}
}

func TestMomentumHoldWithoutVolumeSurge(t *testing.T) {
	strat := NewMomentum(Params{})
	// Last-bar volume equals the 20-bar average, below the 1.2x surge bar.
	sig := strat.Evaluate("RELIANCE.NS", hourlyBars(40, 100))
	if sig.Decision != signal.Hold {
		t.Fatalf("expected HOLD, got %s (%s)", sig.Decision, sig.Reason)
	}
}

func TestMomentumHoldOnShortHistory(t *testing.T) {
	strat := NewMomentum(Params{})
	for n := 0; n < 30; n += 7 {
		sig := strat.Evaluate("TCS.NS", hourlyBars(n, 500))
		if sig.Decision != signal.Hold {
			t.Fatalf("expected HOLD for %d bars, got %s", n, sig.Decision)
		}
	}
}

func TestMomentumIsDeterministic(t *testing.T) {
	strat := NewMomentum(Params{})
	series := hourlyBars(40, 200)
	first := strat.Evaluate("HDFCBANK.NS", series)
	second := strat.Evaluate("HDFCBANK.NS", series)
	if first.Decision != second.Decision || first.Reason != second.Reason {
		t.Fatalf("expected identical evaluations, got %+v vs %+v", first, second)
	}
}

func TestMomentumHoldOnMalformedSeries(t *testing.T) {
	strat := NewMomentum(Params{})
	series := hourlyBars(40, 200)
	for i := range series {
		series[i].Close = math.NaN()
		series[i].Volume = math.NaN()
	}
	sig := strat.Evaluate("BAD.NS", series)
	if sig.Decision != signal.Hold {
		t.Fatalf("expected HOLD on malformed series, got %s", sig.Decision)
	}
}

func TestCrossoverBuyOnRisingSeries(t *testing.T) {
	strat := NewCrossover(Params{})
	sig := strat.Evaluate("INFY.NS", hourlyBars(40, 100))
	if sig.Decision != signal.Buy {
		t.Fatalf("expected BUY, got %s (%s)", sig.Decision, sig.Reason)
	}
}

func TestBuildSelectsMode(t *testing.T) {
	if name := Build("momentum", Params{}).Name(); name != "Momentum" {
		t.Fatalf("unexpected strategy for momentum mode: %s", name)
	}
	if name := Build("crossover", Params{}).Name(); name != "Crossover" {
		t.Fatalf("unexpected strategy for crossover mode: %s", name)
	}
	if name := Build("unknown", Params{}).Name(); name != "Momentum" {
		t.Fatalf("expected momentum fallback, got %s", name)
	}
}
