// Package monitor publishes per-cycle operator snapshots via structured logs.
package monitor

import (
	"context"

	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/types"
)

// Log emits each pushed snapshot as a structured log line. Alerts are
// escalated to warning level.
type Log struct{}

var _ interfaces.Monitor = (*Log)(nil)

func New() *Log { return &Log{} }

func (m *Log) Push(snap types.CycleSnapshot) {
	ctx := context.Background()
	args := []any{
		"symbol", snap.Symbol,
		"state", string(snap.Position.State),
		"opened", snap.Stats.Opened,
		"closed", snap.Stats.Closed,
		"wins", snap.Stats.Wins,
		"realized_pnl", snap.Stats.RealizedPnL,
	}
	if snap.Position.State != types.StateFlat {
		args = append(args,
			"side", string(snap.Position.Side),
			"entry_price", snap.Position.EntryPrice,
			"tier", snap.Position.Tier,
		)
	}
	if snap.LastSignal != nil {
		args = append(args,
			"signal_direction", string(snap.LastSignal.Direction),
			"signal_confidence", snap.LastSignal.Confidence,
		)
	}
	if snap.LastIntent != nil {
		args = append(args, "action", string(snap.LastIntent.Action))
	}
	if snap.Alert != "" {
		args = append(args, "alert", snap.Alert)
		logger.Warn(ctx, "cycle snapshot", args...)
		return
	}
	logger.Info(ctx, "cycle snapshot", args...)
}
