package marketdata

import (
	"context"
	"math/rand"
	"time"

	"quant-trading-bot/internal/types"
)

// Static serves synthetic candles for dry runs and tests. A gentle
// random walk around a base price, deterministic enough to exercise the
// indicator pipeline.
type Static struct {
	base float64
}

func NewStatic() *Static {
	return &Static{base: 30000.0}
}

func (s *Static) Klines(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	step := intervalSeconds(timeframe)
	cs := make([]types.Candle, 0, lookback)
	now := time.Now().Unix()
	for i := lookback; i > 0; i-- {
		c := s.base + float64(i)*0.5 + (rand.Float64()-0.5)*s.base*0.002
		h := c + rand.Float64()*s.base*0.001
		l := c - rand.Float64()*s.base*0.001
		cs = append(cs, types.Candle{
			Ts:    now - int64(i)*step,
			Open:  c - s.base*0.0005,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   50 + rand.Float64()*1000,
		})
	}
	return cs, nil
}

func (s *Static) LastPrice(ctx context.Context, symbol string) (float64, error) {
	return s.base + (rand.Float64()-0.5)*s.base*0.002, nil
}

func (s *Static) Start(ctx context.Context, symbols []string) error { return nil }
func (s *Static) Stop(ctx context.Context)                          {}

func intervalSeconds(timeframe string) int64 {
	switch timeframe {
	case "1m":
		return 60
	case "5m":
		return 300
	case "15m":
		return 900
	case "1h":
		return 3600
	case "4h":
		return 14400
	case "1d":
		return 86400
	default:
		return 60
	}
}
