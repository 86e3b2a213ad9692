// Package engine owns the position lifecycle state machine and the
// execution-risk supervision of the open position. All reads and
// mutations of the shared position serialize through one mutex; both
// scheduler loops go through Engine methods and never see a partially
// updated position.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/tradelog"
	"quant-trading-bot/internal/types"
)

// TransitionResult describes one applied (or rejected) transition. Safe
// to hand to the monitoring sink.
type TransitionResult struct {
	From        types.PositionState
	To          types.PositionState
	Action      types.Action
	CloseReason types.CloseReason
	Price       float64
	RealizedPnL float64
	Position    types.PositionView
}

// Engine is the sole owner of the shared position.
type Engine struct {
	cfg *store.Config

	mu    sync.Mutex
	pos   *position
	stats types.TradeStats
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg, pos: newPosition()}
}

// View returns a read-only copy of the current position.
func (e *Engine) View() types.PositionView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos.view(e.cfg.Symbol)
}

// Stats returns a copy of the cumulative trade statistics.
func (e *Engine) Stats() types.TradeStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Apply executes an open or close intent against the state machine at
// the given market price. Hold intents are a no-op by contract; the
// orchestrator never forwards them. The mutation itself is synchronous
// and all-or-nothing; journal and log writes happen after the lock is
// released.
func (e *Engine) Apply(ctx context.Context, intent types.TradeIntent, price float64, now time.Time) (TransitionResult, error) {
	e.mu.Lock()
	res, err := e.applyLocked(intent, price, now)
	e.mu.Unlock()

	if err != nil {
		logger.Risk(ctx, e.cfg.Symbol, "TRANSITION_REJECTED",
			"action", string(intent.Action),
			"state", string(res.From),
			"error", err.Error(),
		)
		return res, err
	}
	e.record(ctx, res, intent.Reason)
	return res, nil
}

func (e *Engine) applyLocked(intent types.TradeIntent, price float64, now time.Time) (TransitionResult, error) {
	from := e.pos.state
	res := TransitionResult{From: from, To: from, Action: intent.Action, Position: e.pos.view(e.cfg.Symbol)}

	if from == types.StateClosing {
		return res, fmt.Errorf("%w: %s while CLOSING", ErrConcurrentClose, intent.Action)
	}

	switch intent.Action {
	case types.ActOpenLong, types.ActOpenShort:
		if from == types.StateOpen {
			return res, fmt.Errorf("%w: open while OPEN, flatten-before-opening was bypassed", ErrInvalidTransition)
		}
		if intent.Tier <= 0 {
			return res, fmt.Errorf("%w: open with tier %d", ErrInvalidTransition, intent.Tier)
		}
		side := types.SideLong
		if intent.Action == types.ActOpenShort {
			side = types.SideShort
		}
		stop, target := bracket(price, side, e.cfg.Risk.StopLossPct, e.cfg.Risk.TakeProfitPct, e.cfg.Risk.Leverage)
		e.pos.state = types.StateOpen
		e.pos.side = side
		e.pos.entryPrice = price
		e.pos.tier = intent.Tier
		e.pos.stopLoss = stop
		e.pos.takeProfit = target
		e.pos.openedAt = now
		e.stats.Opened++

		res.To = types.StateOpen
		res.Price = price
		res.Position = e.pos.view(e.cfg.Symbol)
		return res, nil

	case types.ActClose:
		if from != types.StateOpen {
			// Nothing to close; benign when a reversal race already
			// flattened the position.
			return res, nil
		}
		return e.closeLocked(price, types.CloseReversal), nil

	case types.ActHold:
		return res, nil

	default:
		return res, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, intent.Action)
	}
}

// closeLocked performs OPEN -> CLOSING -> FLAT in one critical section,
// so no observer ever sees CLOSING across a lock boundary.
func (e *Engine) closeLocked(price float64, reason types.CloseReason) TransitionResult {
	res := TransitionResult{
		From:        types.StateOpen,
		To:          types.StateFlat,
		Action:      types.ActClose,
		CloseReason: reason,
		Price:       price,
	}
	e.pos.state = types.StateClosing

	notional := e.cfg.Notional(e.pos.tier)
	pnl := (price - e.pos.entryPrice) / e.pos.entryPrice * e.pos.side.Sign() * notional
	res.RealizedPnL = pnl

	e.stats.Closed++
	if pnl > 0 {
		e.stats.Wins++
	}
	e.stats.RealizedPnL += pnl

	// Keep the closed view for callers before wiping.
	res.Position = e.pos.view(e.cfg.Symbol)
	res.Position.State = types.StateFlat
	e.pos.reset()
	return res
}

// CloseAll flattens any open position with the given reason. Used for
// shutdown so no risk state outlives the process.
func (e *Engine) CloseAll(ctx context.Context, price float64, reason types.CloseReason) (TransitionResult, bool) {
	e.mu.Lock()
	if e.pos.state != types.StateOpen {
		e.mu.Unlock()
		return TransitionResult{}, false
	}
	res := e.closeLocked(price, reason)
	e.mu.Unlock()

	e.record(ctx, res, string(reason))
	return res, true
}

// record emits transition logs and journal entries after the mutation
// has committed.
func (e *Engine) record(ctx context.Context, res TransitionResult, reason string) {
	if res.From == res.To {
		return
	}
	logger.Transition(ctx, e.cfg.Symbol, string(res.From), string(res.To),
		"action", string(res.Action),
		"price", res.Price,
		"tier", res.Position.Tier,
		"close_reason", string(res.CloseReason),
		"realized_pnl", res.RealizedPnL,
	)
	entry := tradelog.Entry{
		Symbol: e.cfg.Symbol,
		Price:  res.Price,
		Tier:   res.Position.Tier,
		Reason: reason,
	}
	if res.To == types.StateOpen {
		entry.Event = "OPEN"
		entry.Side = string(res.Position.Side)
		entry.StopLoss = res.Position.StopLoss
		entry.TakeProfit = res.Position.TakeProfit
	} else {
		entry.Event = "CLOSE"
		entry.Side = string(res.Position.Side)
		entry.CloseReason = string(res.CloseReason)
		entry.RealizedPnL = res.RealizedPnL
	}
	if err := tradelog.Append(entry); err != nil {
		logger.Warn(ctx, "Failed to journal transition", "error", err)
	}
}
