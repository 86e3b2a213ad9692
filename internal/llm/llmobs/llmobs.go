// Package llmobs wraps a SignalProvider with tracing and logging.
package llmobs

import (
	"context"
	"time"

	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/trace"
	"quant-trading-bot/internal/types"
)

type observableProvider struct {
	provider interfaces.SignalProvider
}

var _ interfaces.SignalProvider = (*observableProvider)(nil)

func Wrap(provider interfaces.SignalProvider) interfaces.SignalProvider {
	return &observableProvider{provider: provider}
}

func (o *observableProvider) Infer(ctx context.Context, snap types.FeatureSnapshot) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Infer")
	defer span.End()

	start := time.Now()
	sig, err := o.provider.Infer(ctx, snap)
	if err != nil {
		logger.ErrorWithErr(ctx, "Signal inference failed", err,
			"symbol", snap.Symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return types.Signal{}, err
	}

	logger.Signal(ctx, snap.Symbol, string(sig.Direction), sig.Confidence, sig.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sig, nil
}
