package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"scanbot/internal/metrics"
)

const defaultFyersBaseURL = "https://api-t1.fyers.in"

// Fyers submits intraday market orders through the Fyers v3 REST API.
type Fyers struct {
	baseURL     string
	appID       string
	accessToken string
	client      *http.Client
	log         zerolog.Logger
}

// NewFyers builds the adapter; an empty baseURL selects the production endpoint.
func NewFyers(baseURL, appID, accessToken string, log zerolog.Logger) *Fyers {
	if baseURL == "" {
		baseURL = defaultFyersBaseURL
	}
	return &Fyers{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		appID:       appID,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Name identifies the port in logs and metrics.
func (f *Fyers) Name() string { return "fyers" }

type fyersOrderRequest struct {
	Symbol       string `json:"symbol"`
	Qty          int    `json:"qty"`
	Type         int    `json:"type"`
	Side         int    `json:"side"`
	ProductType  string `json:"productType"`
	LimitPrice   int    `json:"limitPrice"`
	StopPrice    int    `json:"stopPrice"`
	Validity     string `json:"validity"`
	DisclosedQty int    `json:"disclosedQty"`
	OfflineOrder bool   `json:"offlineOrder"`
}

type fyersOrderResponse struct {
	S       string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit places a market order, day validity, intraday product, zero limit and
// stop prices. A non-ok status in the response body is returned as an error.
func (f *Fyers) Submit(ctx context.Context, intent OrderIntent) (Ack, error) {
	side := 1
	if intent.Side == Sell {
		side = -1
	}
	payload := fyersOrderRequest{
		Symbol:      intent.Symbol,
		Qty:         intent.Qty,
		Type:        2, // market
		Side:        side,
		ProductType: "INTRADAY",
		Validity:    "DAY",
	}

	var resp fyersOrderResponse
	if err := f.post(ctx, "/api/v3/orders/sync", payload, &resp); err != nil {
		return Ack{}, err
	}
	if resp.S != "ok" {
		return Ack{Status: resp.S}, fmt.Errorf("fyers rejected order: %s (code %d)", resp.Message, resp.Code)
	}

	metrics.OrdersTotal.WithLabelValues(intent.Symbol, string(intent.Side)).Inc()
	f.log.Info().
		Str("sym", intent.Symbol).
		Str("side", string(intent.Side)).
		Int("qty", intent.Qty).
		Str("order_id", resp.ID).
		Msg("order placed")
	return Ack{OrderID: resp.ID, Status: resp.S}, nil
}

type fyersFundsResponse struct {
	S         string `json:"s"`
	FundLimit []struct {
		Title        string  `json:"title"`
		EquityAmount float64 `json:"equityAmount"`
	} `json:"fund_limit"`
}

// AvailableFunds returns the deployable equity balance reported by the funds API.
func (f *Fyers) AvailableFunds(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v3/funds", nil)
	if err != nil {
		return 0, err
	}
	f.authorize(req)

	httpResp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fyers funds: status %d", httpResp.StatusCode)
	}

	var resp fyersFundsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return 0, fmt.Errorf("decode funds response: %w", err)
	}
	if resp.S != "ok" {
		return 0, fmt.Errorf("fyers funds: status %q", resp.S)
	}
	for _, limit := range resp.FundLimit {
		if strings.EqualFold(limit.Title, "Available Balance") {
			return limit.EquityAmount, nil
		}
	}
	return 0, fmt.Errorf("fyers funds: available balance not reported")
}

func (f *Fyers) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	f.authorize(req)

	httpResp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("fyers %s: status %d", path, httpResp.StatusCode)
	}
	return json.NewDecoder(httpResp.Body).Decode(out)
}

func (f *Fyers) authorize(req *http.Request) {
	req.Header.Set("Authorization", f.appID+":"+f.accessToken)
}
