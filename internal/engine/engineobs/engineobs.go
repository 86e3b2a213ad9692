// Package engineobs wraps the position engine entrypoints with tracing.
package engineobs

import (
	"context"
	"time"

	"quant-trading-bot/internal/engine"
	"quant-trading-bot/internal/trace"
	"quant-trading-bot/internal/types"
)

// Engine mirrors the position engine surface used by the orchestrator,
// opening a span around each state-changing call.
type Engine struct {
	inner *engine.Engine
}

func Wrap(inner *engine.Engine) *Engine {
	return &Engine{inner: inner}
}

func (o *Engine) View() types.PositionView { return o.inner.View() }

func (o *Engine) Stats() types.TradeStats { return o.inner.Stats() }

func (o *Engine) Apply(ctx context.Context, intent types.TradeIntent, price float64, now time.Time) (engine.TransitionResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Apply")
	defer span.End()
	return o.inner.Apply(ctx, intent, price, now)
}

func (o *Engine) Supervise(ctx context.Context, price float64, remaining time.Duration) (engine.TransitionResult, bool) {
	ctx, span := trace.StartSpan(ctx, "engine.Supervise")
	defer span.End()
	return o.inner.Supervise(ctx, price, remaining)
}

func (o *Engine) CloseAll(ctx context.Context, price float64, reason types.CloseReason) (engine.TransitionResult, bool) {
	ctx, span := trace.StartSpan(ctx, "engine.CloseAll")
	defer span.End()
	return o.inner.CloseAll(ctx, price, reason)
}
