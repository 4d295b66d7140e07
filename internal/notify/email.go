package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"scanbot/internal/ledger"
)

// Email sends the daily summary over SMTP with STARTTLS. Trade alerts are not
// mailed; per-trade chatter belongs to the chat channel.
type Email struct {
	host     string
	port     int
	from     string
	password string
	to       string
}

// NewEmail configures the sender. An empty recipient defaults to the sender.
func NewEmail(host string, port int, from, password, to string) *Email {
	if to == "" {
		to = from
	}
	return &Email{host: host, port: port, from: from, password: password, to: to}
}

// TradeAlert is a no-op for the mail channel.
func (e *Email) TradeAlert(context.Context, Alert) error { return nil }

// DailySummary mails the day's ledger rows as a plain-text table.
func (e *Email) DailySummary(_ context.Context, records []ledger.TradeRecord) error {
	var body strings.Builder
	if len(records) == 0 {
		body.WriteString("No trades recorded today.\n")
	} else {
		body.WriteString("timestamp,symbol,side,qty,entry,tp,sl\n")
		for _, rec := range records {
			fmt.Fprintf(&body, "%s,%s,%s,%d,%.2f,%.2f,%.2f\n",
				rec.Ts.Format(ledger.TimeLayout), rec.Symbol, rec.Side, rec.Qty,
				rec.Entry, rec.TakeProfit, rec.StopLoss)
		}
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Daily Trade Summary\r\n\r\n%s",
		e.from, e.to, body.String())
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.from, e.password, e.host)
	return smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(msg))
}
