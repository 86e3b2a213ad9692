package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	err := Append(Entry{
		Event: "OPEN", Symbol: "BTCUSDT", Side: "LONG",
		Tier: 2, Price: 30000, StopLoss: 29820, TakeProfit: 30360,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	f, err := os.Open(filepath.Join(dir, day+".txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("expected one journal line")
	}
	var got Entry
	if err := json.Unmarshal(sc.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if got.Event != "OPEN" || got.Symbol != "BTCUSDT" || got.Tier != 2 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Time == "" {
		t.Error("entry time should be stamped")
	}
}

func TestAppendSignalGoesToSignalsDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	err := AppendSignal(SignalEntry{
		Symbol: "BTCUSDT", Direction: "LONG", Confidence: 0.7, Action: "OPEN_LONG", Tier: 3,
	})
	if err != nil {
		t.Fatalf("append signal failed: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(dir, "signals", day+".txt")); err != nil {
		t.Errorf("signal journal missing: %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	oldDay := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")
	oldPath := filepath.Join(dir, oldDay+".txt")
	if err := os.WriteFile(oldPath, []byte("{\"event\":\"OPEN\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Append(Entry{Event: "OPEN", Symbol: "BTCUSDT"}); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old journal should be removed after compression")
	}
	gz, err := os.Open(oldPath + ".gz")
	if err != nil {
		t.Fatalf("compressed journal missing: %v", err)
	}
	defer gz.Close()
	r, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\"event\":\"OPEN\"}\n" {
		t.Errorf("compressed content mismatch: %q", b)
	}

	// Today's journal stays uncompressed.
	today := time.Now().UTC().Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(dir, today+".txt")); err != nil {
		t.Errorf("current journal should remain: %v", err)
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	if err := CompressOlder(0); err != nil {
		t.Errorf("disabled retention should be a no-op, got %v", err)
	}
}
