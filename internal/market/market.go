// Package market hosts price sources and the data port consumed by the engine.
package market

import (
	"context"
	"errors"

	"scanbot/internal/signal"
)

// ErrNoData distinguishes "nothing available for this symbol" from a genuine
// zero price returned by a venue.
var ErrNoData = errors.New("market: no data for symbol")

// MarketData supplies the latest quote and historical bars for a symbol.
type MarketData interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	History(ctx context.Context, symbol string, bars int, interval string) (signal.Series, error)
}
