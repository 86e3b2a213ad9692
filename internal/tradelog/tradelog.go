// Package tradelog keeps an append-only JSON-lines journal of position
// transitions and AI signals, one file per UTC day.
package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry records one position open or close.
type Entry struct {
	Time        string  `json:"time"`
	Event       string  `json:"event"` // OPEN or CLOSE
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Tier        int     `json:"tier"`
	Price       float64 `json:"price"`
	StopLoss    float64 `json:"stop_loss,omitempty"`
	TakeProfit  float64 `json:"take_profit,omitempty"`
	CloseReason string  `json:"close_reason,omitempty"`
	RealizedPnL float64 `json:"realized_pnl,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// SignalEntry records one AI signal alongside the decided intent.
type SignalEntry struct {
	Time       string  `json:"time"`
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Action     string  `json:"action"`
	Tier       int     `json:"tier"`
	Reason     string  `json:"reason"`
	Price      float64 `json:"price"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func signalsFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "signals", d+".txt")
}

// Append writes one trade entry to today's journal.
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}

// AppendSignal writes one signal entry to today's signal journal.
func AppendSignal(e SignalEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(signalsFilepath(now), e)
}

func appendLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files older than the retention window and
// removes the originals. days <= 0 disables compression.
func CompressOlder(days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	for _, dir := range []string{logDir(), filepath.Join(logDir(), "signals")} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range entries {
			name := de.Name()
			if de.IsDir() || !strings.HasSuffix(name, ".txt") {
				continue
			}
			day, err := time.Parse("2006-01-02", strings.TrimSuffix(name, ".txt"))
			if err != nil || !day.Before(cutoff) {
				continue
			}
			src := filepath.Join(dir, name)
			if err := gzipFile(src); err != nil {
				return err
			}
			if err := os.Remove(src); err != nil {
				return err
			}
		}
	}
	return nil
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer out.Close()
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
