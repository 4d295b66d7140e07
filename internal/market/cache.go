package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scanbot/internal/signal"
)

type cachedQuote struct {
	price   float64
	fetched time.Time
}

type cachedHistory struct {
	series  signal.Series
	fetched time.Time
}

// Cache wraps a MarketData source with an explicit freshness contract: a quote
// or history fetched less than ttl ago is served from memory, anything older is
// refetched. Failures are never cached.
type Cache struct {
	inner MarketData
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	quotes  map[string]cachedQuote
	history map[string]cachedHistory
}

// NewCache wraps inner with the given time-to-live.
func NewCache(inner MarketData, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		quotes:  make(map[string]cachedQuote),
		history: make(map[string]cachedHistory),
	}
}

// LatestPrice serves a quote no older than the configured TTL.
func (c *Cache) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	c.mu.Lock()
	entry, ok := c.quotes[symbol]
	now := c.now()
	c.mu.Unlock()
	if ok && now.Sub(entry.fetched) < c.ttl {
		return entry.price, nil
	}

	price, err := c.inner.LatestPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.quotes[symbol] = cachedQuote{price: price, fetched: now}
	c.mu.Unlock()
	return price, nil
}

// History serves a series no older than the configured TTL.
func (c *Cache) History(ctx context.Context, symbol string, bars int, interval string) (signal.Series, error) {
	key := fmt.Sprintf("%s|%d|%s", symbol, bars, interval)

	c.mu.Lock()
	entry, ok := c.history[key]
	now := c.now()
	c.mu.Unlock()
	if ok && now.Sub(entry.fetched) < c.ttl {
		return entry.series, nil
	}

	series, err := c.inner.History(ctx, symbol, bars, interval)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.history[key] = cachedHistory{series: series, fetched: now}
	c.mu.Unlock()
	return series, nil
}
