package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"scanbot/internal/metrics"
	"scanbot/internal/signal"
)

type streamEnvelope struct {
	Stream string      `json:"stream"`
	Data   streamTrade `json:"data"`
}

type streamTrade struct {
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"`
}

type streamedPrice struct {
	price float64
	ts    time.Time
}

// Stream keeps a live last-price cache fed by a websocket trade feed and serves
// LatestPrice from it while the entry is fresh; stale or missing symbols fall
// back to the wrapped source. History always delegates to the wrapped source.
type Stream struct {
	endpoint string
	symbols  []string
	inner    MarketData
	maxAge   time.Duration
	log      zerolog.Logger

	mu     sync.RWMutex
	prices map[string]streamedPrice
}

// NewStream builds the streamer for a combined-stream websocket endpoint.
func NewStream(endpoint string, symbols []string, inner MarketData, maxAge time.Duration, log zerolog.Logger) *Stream {
	if maxAge <= 0 {
		maxAge = 30 * time.Second
	}
	return &Stream{
		endpoint: endpoint,
		symbols:  symbols,
		inner:    inner,
		maxAge:   maxAge,
		log:      log,
		prices:   make(map[string]streamedPrice),
	}
}

// LatestPrice serves the streamed quote when fresh, otherwise the inner source.
func (s *Stream) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	entry, ok := s.prices[symbol]
	s.mu.RUnlock()
	if ok && time.Since(entry.ts) < s.maxAge {
		return entry.price, nil
	}
	if s.inner == nil {
		return 0, ErrNoData
	}
	return s.inner.LatestPrice(ctx, symbol)
}

// History delegates to the wrapped source.
func (s *Stream) History(ctx context.Context, symbol string, bars int, interval string) (signal.Series, error) {
	if s.inner == nil {
		return nil, ErrNoData
	}
	return s.inner.History(ctx, symbol, bars, interval)
}

// Run consumes the websocket feed until the context is canceled, reconnecting
// with capped backoff on failure.
func (s *Stream) Run(ctx context.Context) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("stream requires at least one symbol")
	}

	streams := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		streams[i] = strings.ToLower(sym) + "@trade"
	}
	url := fmt.Sprintf("%s/stream?streams=%s", strings.TrimSuffix(s.endpoint, "/"), strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("price stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *Stream) consume(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Strs("symbols", s.symbols).Msg("connected price stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.Warn().Err(err).Msg("stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		symbol := parseStreamSymbol(env.Stream)
		px, err := strconv.ParseFloat(env.Data.Price, 64)
		if err != nil || px <= 0 {
			continue
		}

		s.mu.Lock()
		s.prices[symbol] = streamedPrice{price: px, ts: time.UnixMilli(env.Data.TradeTime)}
		s.mu.Unlock()
		metrics.QuotesTotal.WithLabelValues(symbol).Inc()
	}
}

func parseStreamSymbol(stream string) string {
	parts := strings.Split(stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToUpper(stream)
	}
	return strings.ToUpper(parts[0])
}
