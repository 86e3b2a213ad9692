// Package eod writes an end-of-day CSV summary from the trade journal.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"quant-trading-bot/internal/tradelog"
)

type aggRow struct {
	Symbol      string
	Opened      int
	Closed      int
	Wins        int
	Losses      int
	RealizedPnL float64
	ByReason    map[string]int
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func tradeFile(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func csvPath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "eod", d+".csv")
}

// SummarizeDay aggregates the day's journal into a per-symbol CSV and
// returns its path. A missing or empty journal yields no file and no error.
func SummarizeDay(t time.Time) (string, error) {
	inPath := tradeFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e tradelog.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := aggs[e.Symbol]
		if row == nil {
			row = &aggRow{Symbol: e.Symbol, ByReason: map[string]int{}}
			aggs[e.Symbol] = row
		}
		switch e.Event {
		case "OPEN":
			row.Opened++
		case "CLOSE":
			row.Closed++
			row.RealizedPnL += e.RealizedPnL
			if e.RealizedPnL > 0 {
				row.Wins++
			} else if e.RealizedPnL < 0 {
				row.Losses++
			}
			if e.CloseReason != "" {
				row.ByReason[e.CloseReason]++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	w := csv.NewWriter(out)
	defer w.Flush()

	headers := []string{"symbol", "opened", "closed", "wins", "losses", "win_rate", "realized_pnl", "stop_loss", "take_profit", "forced", "reversal"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var totalPnL float64
	var totalClosed, totalWins int
	for _, k := range keys {
		r := aggs[k]
		var winRate float64
		if r.Closed > 0 {
			winRate = float64(r.Wins) / float64(r.Closed)
		}
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.Opened),
			strconv.Itoa(r.Closed),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			fmt.Sprintf("%.2f", winRate),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			strconv.Itoa(r.ByReason["STOP_LOSS"]),
			strconv.Itoa(r.ByReason["TAKE_PROFIT"]),
			strconv.Itoa(r.ByReason["FORCED_CLOSE"]),
			strconv.Itoa(r.ByReason["REVERSAL"]),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalPnL += r.RealizedPnL
		totalClosed += r.Closed
		totalWins += r.Wins
	}
	_ = w.Write([]string{"TOTAL", "", strconv.Itoa(totalClosed), strconv.Itoa(totalWins), "", "", fmt.Sprintf("%.2f", totalPnL), "", "", "", ""})
	return outPath, nil
}

func SummarizeToday() (string, error) { return SummarizeDay(time.Now().UTC()) }

// ShouldRunNow reports whether the session end has passed without a
// summary having been written yet.
func ShouldRunNow(endHour, endMinute int) (bool, string) {
	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), endHour, endMinute, 0, 0, time.UTC)
	outPath := csvPath(now)
	if now.After(cutoff) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
