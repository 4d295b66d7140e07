package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"scanbot/internal/metrics"
)

const defaultAngelBaseURL = "https://apiconnect.angelbroking.com"

// Angel submits intraday market orders through the Angel One SmartAPI.
// The funds endpoint is not wired, so the engine's affordability gate falls
// back to the notional cap when this port is active.
type Angel struct {
	baseURL string
	apiKey  string
	jwt     string
	client  *http.Client
	log     zerolog.Logger
}

// NewAngel builds the adapter; an empty baseURL selects the production endpoint.
func NewAngel(baseURL, apiKey, jwt string, log zerolog.Logger) *Angel {
	if baseURL == "" {
		baseURL = defaultAngelBaseURL
	}
	return &Angel{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		jwt:     jwt,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Name identifies the port in logs and metrics.
func (a *Angel) Name() string { return "angel" }

type angelOrderRequest struct {
	Variety         string `json:"variety"`
	TradingSymbol   string `json:"tradingsymbol"`
	TransactionType string `json:"transactiontype"`
	Exchange        string `json:"exchange"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Duration        string `json:"duration"`
	Quantity        string `json:"quantity"`
}

type angelOrderResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		OrderID string `json:"orderid"`
	} `json:"data"`
}

// Submit places an NSE market order, intraday product, day duration.
func (a *Angel) Submit(ctx context.Context, intent OrderIntent) (Ack, error) {
	payload := angelOrderRequest{
		Variety:         "NORMAL",
		TradingSymbol:   intent.Symbol,
		TransactionType: string(intent.Side),
		Exchange:        "NSE",
		OrderType:       "MARKET",
		ProductType:     "INTRADAY",
		Duration:        "DAY",
		Quantity:        strconv.Itoa(intent.Qty),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, err
	}

	endpoint := a.baseURL + "/rest/secure/angelbroking/order/v1/placeOrder"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Ack{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.jwt)
	req.Header.Set("X-PrivateKey", a.apiKey)
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-UserType", "USER")

	httpResp, err := a.client.Do(req)
	if err != nil {
		return Ack{}, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return Ack{}, fmt.Errorf("angel placeOrder: status %d", httpResp.StatusCode)
	}

	var resp angelOrderResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Ack{}, fmt.Errorf("decode placeOrder response: %w", err)
	}
	if !resp.Status {
		return Ack{Status: "rejected"}, fmt.Errorf("angel rejected order: %s", resp.Message)
	}

	metrics.OrdersTotal.WithLabelValues(intent.Symbol, string(intent.Side)).Inc()
	a.log.Info().
		Str("sym", intent.Symbol).
		Str("side", string(intent.Side)).
		Int("qty", intent.Qty).
		Str("order_id", resp.Data.OrderID).
		Msg("order placed")
	return Ack{OrderID: resp.Data.OrderID, Status: "ok"}, nil
}
