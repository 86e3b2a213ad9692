// Package session tracks the trading window and the forced-liquidation
// boundary derived from it.
package session

import (
	"time"

	"quant-trading-bot/internal/store"
)

// Window knows how much time remains before mandatory liquidation.
// Read-only after construction; the supervisor polls it every fine tick.
type Window struct {
	endHour   int
	endMinute int
	buffer    time.Duration
	now       func() time.Time
}

func NewWindow(cfg *store.Config) *Window {
	end, _ := time.Parse("15:04", cfg.Session.End)
	return &Window{
		endHour:   end.Hour(),
		endMinute: end.Minute(),
		buffer:    time.Duration(cfg.Session.ForceCloseBufMin) * time.Minute,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewWindowAt builds a window with a fixed clock, for tests.
func NewWindowAt(endHour, endMinute int, buffer time.Duration, now func() time.Time) *Window {
	return &Window{endHour: endHour, endMinute: endMinute, buffer: buffer, now: now}
}

// Boundary returns today's forced-closure instant: session end minus the
// configured buffer.
func (w *Window) Boundary() time.Time {
	n := w.now()
	end := time.Date(n.Year(), n.Month(), n.Day(), w.endHour, w.endMinute, 0, 0, n.Location())
	return end.Add(-w.buffer)
}

// Remaining is the time left before forced closure. Zero or negative
// means the boundary has been reached.
func (w *Window) Remaining() time.Duration {
	return w.Boundary().Sub(w.now())
}
