package market

import (
	"context"

	"scanbot/internal/signal"
)

// Stub is a deterministic in-memory source for tests and offline runs.
// A symbol present in Prices is returned verbatim, including a zero value, so
// callers can exercise the skip-on-bad-price path; an absent symbol is ErrNoData.
type Stub struct {
	Prices    map[string]float64
	Histories map[string]signal.Series
	Err       error
}

// LatestPrice returns the configured price for the symbol.
func (s *Stub) LatestPrice(_ context.Context, symbol string) (float64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	price, ok := s.Prices[symbol]
	if !ok {
		return 0, ErrNoData
	}
	return price, nil
}

// History returns the configured series for the symbol.
func (s *Stub) History(_ context.Context, symbol string, bars int, _ string) (signal.Series, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	series, ok := s.Histories[symbol]
	if !ok {
		return nil, ErrNoData
	}
	if bars > 0 && len(series) > bars {
		series = series[len(series)-bars:]
	}
	return series, nil
}
