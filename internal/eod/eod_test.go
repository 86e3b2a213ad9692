package eod

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"quant-trading-bot/internal/tradelog"
)

func TestSummarizeDayMissingJournal(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	path, err := SummarizeDay(time.Now().UTC())
	if err != nil {
		t.Fatalf("missing journal should not error, got %v", err)
	}
	if path != "" {
		t.Errorf("expected no output file, got %s", path)
	}
}

func TestSummarizeDayAggregates(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	entries := []tradelog.Entry{
		{Event: "OPEN", Symbol: "BTCUSDT", Side: "LONG", Tier: 2, Price: 30000},
		{Event: "CLOSE", Symbol: "BTCUSDT", Side: "LONG", Tier: 2, Price: 30360, CloseReason: "TAKE_PROFIT", RealizedPnL: 9.6},
		{Event: "OPEN", Symbol: "BTCUSDT", Side: "SHORT", Tier: 1, Price: 30400},
		{Event: "CLOSE", Symbol: "BTCUSDT", Side: "SHORT", Tier: 1, Price: 30600, CloseReason: "STOP_LOSS", RealizedPnL: -3.3},
	}
	for _, e := range entries {
		if err := tradelog.Append(e); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	path, err := SummarizeDay(time.Now().UTC())
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if path == "" {
		t.Fatal("expected a CSV path")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + one symbol row + total row
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	sym := rows[1]
	if sym[0] != "BTCUSDT" {
		t.Errorf("symbol = %s, want BTCUSDT", sym[0])
	}
	if sym[1] != "2" || sym[2] != "2" {
		t.Errorf("opened/closed = %s/%s, want 2/2", sym[1], sym[2])
	}
	if sym[3] != "1" || sym[4] != "1" {
		t.Errorf("wins/losses = %s/%s, want 1/1", sym[3], sym[4])
	}
	if sym[6] != "6.30" {
		t.Errorf("realized pnl = %s, want 6.30", sym[6])
	}
	if sym[7] != "1" || sym[8] != "1" {
		t.Errorf("stop/target counts = %s/%s, want 1/1", sym[7], sym[8])
	}

	total := rows[2]
	if total[0] != "TOTAL" || total[6] != "6.30" {
		t.Errorf("unexpected total row: %v", total)
	}
}

func TestShouldRunNowBeforeCutoff(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	// Cutoff one hour from now can't have passed yet.
	next := time.Now().UTC().Add(time.Hour)
	if ok, _ := ShouldRunNow(next.Hour(), next.Minute()); ok {
		// The hour arithmetic wraps at midnight; only fail when the
		// cutoff is genuinely ahead of the clock today.
		now := time.Now().UTC()
		cutoff := time.Date(now.Year(), now.Month(), now.Day(), next.Hour(), next.Minute(), 0, 0, time.UTC)
		if now.Before(cutoff) {
			t.Error("summary should not run before the cutoff")
		}
	}
}

func TestSummaryIgnoresMalformedLines(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	if err := tradelog.Append(tradelog.Entry{Event: "CLOSE", Symbol: "ETHUSDT", RealizedPnL: 5}); err != nil {
		t.Fatal(err)
	}
	day := time.Now().UTC().Format("2006-01-02")
	f, err := os.OpenFile(dir+"/"+day+".txt", os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	path, err := SummarizeDay(time.Now().UTC())
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "ETHUSDT") {
		t.Error("valid entries should survive malformed neighbors")
	}
}
