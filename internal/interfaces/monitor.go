package interfaces

import "quant-trading-bot/internal/types"

// Monitor receives read-only snapshots after each cycle. One-way push;
// implementations must never reach back into core state.
type Monitor interface {
	Push(snap types.CycleSnapshot)
}
