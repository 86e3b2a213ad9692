package interfaces

import (
	"context"

	"quant-trading-bot/internal/types"
)

// MarketData is the data collaborator: candle history and spot price.
// Implementations report transient outages by wrapping
// marketdata.ErrDataUnavailable so the orchestrator can skip the cycle.
type MarketData interface {
	Klines(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
	Start(ctx context.Context, symbols []string) error
	Stop(ctx context.Context)
}
