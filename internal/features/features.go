// Package features turns raw OHLCV bars into immutable FeatureSnapshot
// bundles. Pure and deterministic: same bars in, same snapshot out.
package features

import (
	"time"

	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/ta"
	"quant-trading-bot/internal/types"
)

// Producer computes indicator bundles according to the configured windows.
type Producer struct {
	cfg *store.Config
}

func NewProducer(cfg *store.Config) *Producer {
	return &Producer{cfg: cfg}
}

// Compute builds one FeatureSnapshot from bars keyed by timeframe label.
// The first configured timeframe is the primary one.
func (p *Producer) Compute(symbol string, bars map[string][]types.Candle, at time.Time) types.FeatureSnapshot {
	snap := types.FeatureSnapshot{
		Symbol:     symbol,
		ProducedAt: at,
		Timeframes: make(map[string]types.TimeframeFeatures, len(bars)),
	}
	if len(p.cfg.Timeframes) > 0 {
		snap.Primary = p.cfg.Timeframes[0].Label
	}
	for label, cs := range bars {
		snap.Timeframes[label] = p.computeOne(label, cs)
	}
	return snap
}

func (p *Producer) computeOne(label string, cs []types.Candle) types.TimeframeFeatures {
	closes := make([]float64, len(cs))
	highs := make([]float64, len(cs))
	lows := make([]float64, len(cs))
	vols := make([]float64, len(cs))
	for i, c := range cs {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		vols[i] = c.Vol
	}

	ind := p.cfg.Indicators
	tf := types.TimeframeFeatures{
		Timeframe: label,
		MAFast:    ta.SMA(closes, ind.MAFast),
		MASlow:    ta.SMA(closes, ind.MASlow),
		EMA:       make(map[int]float64, len(ind.EMAWindows)),
		RSI:       ta.RSI(closes, ind.RSIPeriod),
		ATR:       ta.ATR(highs, lows, closes, ind.ATRPeriod),
	}
	if len(closes) > 0 {
		tf.Close = closes[len(closes)-1]
	}
	for _, w := range ind.EMAWindows {
		tf.EMA[w] = ta.EMA(closes, w)
	}
	tf.MACD, tf.MACDSignal, tf.MACDHist = ta.MACD(closes, 12, 26, 9)
	tf.BB.Middle, tf.BB.Upper, tf.BB.Lower = ta.Bollinger(closes, ind.BBWindow, ind.BBStdDev)
	tf.VolumeRatio = ta.VolumeRatio(vols, ind.VolumeWindow)
	return tf
}
