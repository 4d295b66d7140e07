package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scanbot/internal/ledger"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram delivers alerts and summaries through the Telegram bot API.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegram builds the notifier; an empty baseURL selects the public API.
func NewTelegram(baseURL, token, chatID string) *Telegram {
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	return &Telegram{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// TradeAlert sends one message per decided trade.
func (t *Telegram) TradeAlert(ctx context.Context, alert Alert) error {
	msg := fmt.Sprintf("%s %s qty=%d @ %.2f TP: %.2f SL: %.2f",
		alert.Side, alert.Symbol, alert.Qty, alert.Entry, alert.TakeProfit, alert.StopLoss)
	return t.send(ctx, msg)
}

// DailySummary sends one message listing the day's ledger rows.
func (t *Telegram) DailySummary(ctx context.Context, records []ledger.TradeRecord) error {
	if len(records) == 0 {
		return t.send(ctx, "Daily summary: no trades recorded")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Daily summary: %d trade(s)\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(&b, "%s %s %s x%d @ %.2f\n",
			rec.Ts.Format("15:04"), rec.Side, rec.Symbol, rec.Qty, rec.Entry)
	}
	return t.send(ctx, b.String())
}

func (t *Telegram) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	form := url.Values{"chat_id": {t.chatID}, "text": {text}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage: status %d", resp.StatusCode)
	}
	return nil
}
