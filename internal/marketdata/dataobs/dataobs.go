// Package dataobs wraps a MarketData implementation with tracing and
// structured logging.
package dataobs

import (
	"context"
	"time"

	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/trace"
	"quant-trading-bot/internal/types"
)

type observableMarketData struct {
	data interfaces.MarketData
}

var _ interfaces.MarketData = (*observableMarketData)(nil)

func Wrap(data interfaces.MarketData) interfaces.MarketData {
	return &observableMarketData{data: data}
}

func (o *observableMarketData) Klines(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.Klines")
	defer span.End()

	start := time.Now()
	candles, err := o.data.Klines(ctx, symbol, timeframe, lookback)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch candles", err,
			"symbol", symbol,
			"timeframe", timeframe,
			"lookback", lookback,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	logger.Debug(ctx, "Candles fetched",
		"symbol", symbol,
		"timeframe", timeframe,
		"count", len(candles),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return candles, nil
}

func (o *observableMarketData) LastPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.LastPrice")
	defer span.End()

	price, err := o.data.LastPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch last price", err, "symbol", symbol)
		return 0, err
	}
	logger.Debug(ctx, "Last price fetched", "symbol", symbol, "price", price)
	return price, nil
}

func (o *observableMarketData) Start(ctx context.Context, symbols []string) error {
	if err := o.data.Start(ctx, symbols); err != nil {
		logger.ErrorWithErr(ctx, "Failed to start market data source", err, "symbols", symbols)
		return err
	}
	return nil
}

func (o *observableMarketData) Stop(ctx context.Context) {
	o.data.Stop(ctx)
}
