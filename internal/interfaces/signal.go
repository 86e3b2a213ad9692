package interfaces

import (
	"context"

	"quant-trading-bot/internal/types"
)

// SignalProvider turns a FeatureSnapshot into a trade signal. A failed
// or timed-out call means no signal this cycle; the caller degrades to
// hold and retries on the next period.
type SignalProvider interface {
	Infer(ctx context.Context, snap types.FeatureSnapshot) (types.Signal, error)
}
