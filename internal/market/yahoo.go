package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"scanbot/internal/signal"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// rangeForInterval maps a bar interval onto a chart range wide enough to cover
// the configured lookback; the series is truncated to the requested bar count.
var rangeForInterval = map[string]string{
	"1m":  "1d",
	"5m":  "5d",
	"15m": "5d",
	"1h":  "15d",
	"1d":  "3mo",
}

// Yahoo fetches quotes and OHLCV history from the Yahoo Finance chart API.
type Yahoo struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewYahoo builds the adapter; an empty baseURL selects the public endpoint.
func NewYahoo(baseURL string, log zerolog.Logger) *Yahoo {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &Yahoo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// LatestPrice returns the regular market price for the symbol.
func (y *Yahoo) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	result, err := y.fetchChart(ctx, symbol, "1m", "1d")
	if err != nil {
		return 0, err
	}
	if result.Meta.RegularMarketPrice <= 0 {
		return 0, ErrNoData
	}
	return result.Meta.RegularMarketPrice, nil
}

// History returns up to bars OHLCV samples at the given interval, oldest first.
// Bars with a missing close are dropped.
func (y *Yahoo) History(ctx context.Context, symbol string, bars int, interval string) (signal.Series, error) {
	rng, ok := rangeForInterval[interval]
	if !ok {
		rng = "1mo"
	}
	result, err := y.fetchChart(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}
	if len(result.Indicators.Quote) == 0 || len(result.Timestamp) == 0 {
		return nil, ErrNoData
	}

	quote := result.Indicators.Quote[0]
	series := make(signal.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := signal.Bar{Ts: time.Unix(ts, 0).UTC(), Close: *quote.Close[i]}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		series = append(series, bar)
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	if bars > 0 && len(series) > bars {
		series = series[len(series)-bars:]
	}
	return series, nil
}

func (y *Yahoo) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "scanbot/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s: status %d", symbol, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if payload.Chart.Error != nil {
		y.log.Warn().Str("symbol", symbol).Str("code", payload.Chart.Error.Code).Msg("chart api error")
		return nil, ErrNoData
	}
	if len(payload.Chart.Result) == 0 {
		return nil, ErrNoData
	}
	return &payload.Chart.Result[0], nil
}
