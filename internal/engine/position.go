package engine

import (
	"time"

	"quant-trading-bot/internal/types"
)

// position is the single shared mutable entity. Only Engine methods
// touch it, and only while holding the Engine mutex.
type position struct {
	state      types.PositionState
	side       types.Side
	entryPrice float64
	tier       int
	stopLoss   float64
	takeProfit float64
	openedAt   time.Time
}

func newPosition() *position {
	return &position{state: types.StateFlat}
}

func (p *position) view(symbol string) types.PositionView {
	return types.PositionView{
		State:      p.state,
		Symbol:     symbol,
		Side:       p.side,
		EntryPrice: p.entryPrice,
		Tier:       p.tier,
		StopLoss:   p.stopLoss,
		TakeProfit: p.takeProfit,
		OpenedAt:   p.openedAt,
	}
}

func (p *position) reset() {
	*p = position{state: types.StateFlat}
}

// bracket computes the stop/target pair for an entry. Percentages are
// scaled down by leverage so the bracket reflects price movement, not
// margin PnL. For longs stop < entry < target; shorts mirrored.
func bracket(entry float64, side types.Side, stopPct, targetPct, leverage float64) (stop, target float64) {
	if leverage < 1 {
		leverage = 1
	}
	slDelta := stopPct / 100 / leverage
	tpDelta := targetPct / 100 / leverage
	if side == types.SideLong {
		return entry * (1 - slDelta), entry * (1 + tpDelta)
	}
	return entry * (1 + slDelta), entry * (1 - tpDelta)
}

// stopHit reports whether price has crossed the stop adversely.
func (p *position) stopHit(price float64) bool {
	if p.side == types.SideLong {
		return price <= p.stopLoss
	}
	return price >= p.stopLoss
}

// targetHit reports whether price has crossed the target favorably.
func (p *position) targetHit(price float64) bool {
	if p.side == types.SideLong {
		return price >= p.takeProfit
	}
	return price <= p.takeProfit
}
