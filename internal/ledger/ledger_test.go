package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scanbot/internal/broker"
)

func TestAppendReadAllRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer l.Close()

	rec := TradeRecord{
		Ts:         time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC),
		Symbol:     "RELIANCE.NS",
		Side:       broker.Buy,
		Qty:        3,
		Entry:      333.33,
		TakeProfit: 340.00,
		StopLoss:   330.00,
	}
	if err := l.Append(rec); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	records, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if !got.Ts.Equal(rec.Ts) {
		t.Fatalf("timestamp mismatch: wrote %v read %v", rec.Ts, got.Ts)
	}
	if got.Symbol != rec.Symbol || got.Side != rec.Side || got.Qty != rec.Qty {
		t.Fatalf("round-trip mismatch:\nwrote %+v\nread  %+v", rec, got)
	}
	if got.Entry != rec.Entry || got.TakeProfit != rec.TakeProfit || got.StopLoss != rec.StopLoss {
		t.Fatalf("price round-trip mismatch:\nwrote %+v\nread  %+v", rec, got)
	}
}

func TestReadAllSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	content := strings.Join([]string{
		"2024-03-04 09:15:00,RELIANCE.NS,BUY,3,333.33,340.00,330.00",
		"not-a-timestamp,TCS.NS,BUY,1,4100.00,4182.00,4059.00",
		"2024-03-04 09:16:00,INFY.NS,BUY",
		"2024-03-04 09:17:00,HDFCBANK.NS,BUY,two,1500.00,1530.00,1485.00",
		"2024-03-04 09:18:00,TCS.NS,BUY,1,4100.00,4182.00,4059.00",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer l.Close()

	records, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 well-formed records, got %d", len(records))
	}
	if records[0].Symbol != "RELIANCE.NS" || records[1].Symbol != "TCS.NS" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestReadAllMissingFileIsEmpty(t *testing.T) {
	l := &CSVLedger{path: filepath.Join(t.TempDir(), "absent.csv")}
	records, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer l.Close()

	base := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := TradeRecord{Ts: base.Add(time.Duration(i) * time.Minute), Symbol: "TCS.NS", Side: broker.Buy, Qty: 1, Entry: 4100, TakeProfit: 4182, StopLoss: 4059}
		if err := l.Append(rec); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	records, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if !records[i].Ts.After(records[i-1].Ts) {
			t.Fatalf("expected rows in append order")
		}
	}
}

func TestForDay(t *testing.T) {
	records := []TradeRecord{
		{Ts: time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC), Symbol: "A"},
		{Ts: time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC), Symbol: "B"},
		{Ts: time.Date(2024, 3, 5, 9, 15, 0, 0, time.UTC), Symbol: "C"},
	}
	day := ForDay(records, time.Date(2024, 3, 4, 16, 30, 0, 0, time.UTC))
	if len(day) != 2 {
		t.Fatalf("expected 2 records for the day, got %d", len(day))
	}
	if day[0].Symbol != "A" || day[1].Symbol != "B" {
		t.Fatalf("unexpected day records %+v", day)
	}
}
