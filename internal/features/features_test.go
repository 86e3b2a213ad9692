package features

import (
	"math"
	"testing"
	"time"

	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/types"
)

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Symbol = "BTCUSDT"
	cfg.Timeframes = []store.Timeframe{{Label: "15m", Lookback: 100}, {Label: "1h", Lookback: 100}}
	cfg.Indicators.MAFast = 5
	cfg.Indicators.MASlow = 10
	cfg.Indicators.EMAWindows = []int{12, 26}
	cfg.Indicators.RSIPeriod = 14
	cfg.Indicators.ATRPeriod = 14
	cfg.Indicators.BBWindow = 20
	cfg.Indicators.BBStdDev = 2
	cfg.Indicators.VolumeWindow = 10
	return cfg
}

func trendingCandles(n int) []types.Candle {
	cs := make([]types.Candle, n)
	for i := range cs {
		price := 100 + float64(i)
		cs[i] = types.Candle{
			Ts:    int64(i * 900),
			Open:  price - 0.5,
			High:  price + 1,
			Low:   price - 1,
			Close: price,
			Vol:   1000,
		}
	}
	return cs
}

func TestComputeSetsPrimaryTimeframe(t *testing.T) {
	p := NewProducer(testConfig())
	bars := map[string][]types.Candle{
		"15m": trendingCandles(60),
		"1h":  trendingCandles(60),
	}

	snap := p.Compute("BTCUSDT", bars, time.Now())
	if snap.Primary != "15m" {
		t.Errorf("primary = %s, want first configured timeframe 15m", snap.Primary)
	}
	if len(snap.Timeframes) != 2 {
		t.Fatalf("expected 2 timeframes, got %d", len(snap.Timeframes))
	}
	if _, ok := snap.PrimaryFeatures(); !ok {
		t.Error("primary features should be present")
	}
}

func TestComputeIndicatorsOnUptrend(t *testing.T) {
	p := NewProducer(testConfig())
	snap := p.Compute("BTCUSDT", map[string][]types.Candle{"15m": trendingCandles(60)}, time.Now())

	tf := snap.Timeframes["15m"]
	if tf.Close != 159 {
		t.Errorf("close = %f, want 159", tf.Close)
	}
	if tf.MAFast <= tf.MASlow {
		t.Errorf("uptrend should give MAFast %f > MASlow %f", tf.MAFast, tf.MASlow)
	}
	if tf.MACDHist < 0 {
		t.Errorf("uptrend MACD histogram = %f, want non-negative", tf.MACDHist)
	}
	if tf.RSI < 50 {
		t.Errorf("uptrend RSI = %f, want above 50", tf.RSI)
	}
	if math.IsNaN(tf.ATR) || tf.ATR <= 0 {
		t.Errorf("ATR = %f, want positive", tf.ATR)
	}
	if len(tf.EMA) != 2 {
		t.Errorf("expected EMAs for 2 windows, got %d", len(tf.EMA))
	}
	if !(tf.BB.Lower < tf.BB.Middle && tf.BB.Middle < tf.BB.Upper) {
		t.Errorf("bollinger ordering wrong: %+v", tf.BB)
	}
}

func TestComputeShortSeriesYieldsNaN(t *testing.T) {
	p := NewProducer(testConfig())
	snap := p.Compute("BTCUSDT", map[string][]types.Candle{"15m": trendingCandles(3)}, time.Now())

	tf := snap.Timeframes["15m"]
	if !math.IsNaN(tf.MASlow) {
		t.Errorf("MASlow on 3 bars = %f, want NaN", tf.MASlow)
	}
	if tf.Close != 102 {
		t.Errorf("close = %f, want 102", tf.Close)
	}
}
