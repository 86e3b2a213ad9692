package noop

import (
	"context"
	"time"

	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/types"
)

// Provider is the fallback signal source used when no AI provider is
// configured. It always reports neutral with zero confidence.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Infer(ctx context.Context, snap types.FeatureSnapshot) (types.Signal, error) {
	logger.Debug(ctx, "Noop provider called - always neutral", "symbol", snap.Symbol)
	return types.Signal{
		Direction:  types.DirNeutral,
		Confidence: 0,
		Reason:     "noop_provider_fallback",
		IssuedAt:   time.Now(),
	}, nil
}
