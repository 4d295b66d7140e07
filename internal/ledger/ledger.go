// Package ledger persists one line per decided trade to an append-only CSV log.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"scanbot/internal/broker"
	"scanbot/internal/metrics"
)

// TimeLayout is the timestamp format used for ledger rows.
const TimeLayout = "2006-01-02 15:04:05"

// TradeRecord is one immutable row of the trade log. It records intent and
// sizing, not confirmed fills: a row is written whether or not the broker call
// succeeded and whether or not live mode was on. Prices are held at two
// decimal places.
type TradeRecord struct {
	Ts         time.Time
	Symbol     string
	Side       broker.Side
	Qty        int
	Entry      float64
	TakeProfit float64
	StopLoss   float64
}

// CSVLedger appends records to a comma-separated file, one row per trade,
// no header, never rewritten in place. Appends are serialized and each row is
// a single write so concurrent writers cannot interleave lines.
type CSVLedger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open creates or opens the ledger file in append mode.
func Open(path string) (*CSVLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &CSVLedger{path: path, file: file}, nil
}

// Append writes one record. Failures surface to the caller; the log itself is
// never partially rewritten.
func (l *CSVLedger) Append(rec TradeRecord) error {
	line := fmt.Sprintf("%s,%s,%s,%d,%s,%s,%s\n",
		rec.Ts.Format(TimeLayout),
		rec.Symbol,
		rec.Side,
		rec.Qty,
		fixed2(rec.Entry),
		fixed2(rec.TakeProfit),
		fixed2(rec.StopLoss),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("ledger %s is closed", l.path)
	}
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("append trade record: %w", err)
	}
	metrics.LedgerWritesTotal.Inc()
	return nil
}

// ReadAll returns every well-formed record in file order. Rows with the wrong
// field count, an unparseable timestamp, or malformed numbers are skipped
// rather than failing the whole read.
func (l *CSVLedger) ReadAll() ([]TradeRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var records []TradeRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		rec, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, err
	}
	return records, nil
}

// Close releases the append handle.
func (l *CSVLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ForDay filters records to those stamped on the same calendar day as t.
func ForDay(records []TradeRecord, t time.Time) []TradeRecord {
	y, m, d := t.Date()
	var out []TradeRecord
	for _, rec := range records {
		ry, rm, rd := rec.Ts.Date()
		if ry == y && rm == m && rd == d {
			out = append(out, rec)
		}
	}
	return out
}

func parseLine(line string) (TradeRecord, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 7 {
		return TradeRecord{}, false
	}
	ts, err := time.Parse(TimeLayout, fields[0])
	if err != nil {
		return TradeRecord{}, false
	}
	qty, err := strconv.Atoi(fields[3])
	if err != nil {
		return TradeRecord{}, false
	}
	entry, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return TradeRecord{}, false
	}
	tp, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return TradeRecord{}, false
	}
	sl, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return TradeRecord{}, false
	}
	return TradeRecord{
		Ts:         ts,
		Symbol:     fields[1],
		Side:       broker.Side(fields[2]),
		Qty:        qty,
		Entry:      entry,
		TakeProfit: tp,
		StopLoss:   sl,
	}, true
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
