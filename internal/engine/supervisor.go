package engine

import (
	"context"
	"time"

	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/types"
)

// Supervise runs one fine-tick risk evaluation against the open
// position. Evaluation order is fixed and first-match-wins:
//
//	not OPEN -> no-op
//	window remaining <= 0 -> FORCED_CLOSE
//	stop crossed adversely -> STOP_LOSS
//	target crossed favorably -> TAKE_PROFIT
//
// Forced closure deliberately outranks stop and target so behavior near
// the window boundary is deterministic. The evaluation and any
// resulting close complete atomically with respect to the coarse loop.
func (e *Engine) Supervise(ctx context.Context, price float64, remaining time.Duration) (TransitionResult, bool) {
	e.mu.Lock()
	if e.pos.state != types.StateOpen {
		e.mu.Unlock()
		return TransitionResult{}, false
	}

	reason, triggered := evaluate(e.pos, price, remaining)
	if !triggered {
		e.mu.Unlock()
		return TransitionResult{}, false
	}
	res := e.closeLocked(price, reason)
	e.mu.Unlock()

	logger.Risk(ctx, e.cfg.Symbol, string(reason),
		"price", price,
		"stop_loss", res.Position.StopLoss,
		"take_profit", res.Position.TakeProfit,
		"realized_pnl", res.RealizedPnL,
	)
	e.record(ctx, res, string(reason))
	return res, true
}

func evaluate(p *position, price float64, remaining time.Duration) (types.CloseReason, bool) {
	if remaining <= 0 {
		return types.CloseForced, true
	}
	if p.stopHit(price) {
		return types.CloseStopLoss, true
	}
	if p.targetHit(price) {
		return types.CloseTakeProfit, true
	}
	return "", false
}
