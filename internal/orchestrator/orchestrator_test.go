package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quant-trading-bot/internal/decision"
	"quant-trading-bot/internal/engine"
	"quant-trading-bot/internal/features"
	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/marketdata"
	"quant-trading-bot/internal/session"
	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/types"
)

type fakeData struct {
	mu          sync.Mutex
	klinesErr   error
	price       float64
	priceErr    error
	klinesCalls int
	priceCalls  int
}

func (f *fakeData) Klines(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.klinesCalls++
	if f.klinesErr != nil {
		return nil, f.klinesErr
	}
	cs := make([]types.Candle, lookback)
	for i := range cs {
		price := 100 + float64(i)
		cs[i] = types.Candle{Ts: int64(i), Open: price, High: price + 1, Low: price - 1, Close: price, Vol: 1000}
	}
	return cs, nil
}

func (f *fakeData) LastPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	return f.price, f.priceErr
}

func (f *fakeData) Start(ctx context.Context, symbols []string) error { return nil }
func (f *fakeData) Stop(ctx context.Context)                          {}

func (f *fakeData) setPrice(p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = p
}

type fakeSignals struct {
	sig   types.Signal
	err   error
	calls int
}

func (f *fakeSignals) Infer(ctx context.Context, snap types.FeatureSnapshot) (types.Signal, error) {
	f.calls++
	if f.err != nil {
		return types.Signal{}, f.err
	}
	return f.sig, nil
}

type fakeMonitor struct {
	mu    sync.Mutex
	snaps []types.CycleSnapshot
}

func (f *fakeMonitor) Push(snap types.CycleSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, snap)
}

func (f *fakeMonitor) last(t *testing.T) types.CycleSnapshot {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snaps) == 0 {
		t.Fatal("no snapshots pushed")
	}
	return f.snaps[len(f.snaps)-1]
}

// slowSignals stalls inference to simulate a slow provider.
type slowSignals struct {
	delay time.Duration
}

func (s *slowSignals) Infer(ctx context.Context, snap types.FeatureSnapshot) (types.Signal, error) {
	select {
	case <-time.After(s.delay):
		return types.Signal{Direction: types.DirNeutral}, nil
	case <-ctx.Done():
		return types.Signal{}, ctx.Err()
	}
}

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Mode = "DRY_RUN"
	cfg.Symbol = "BTCUSDT"
	cfg.Timeframes = []store.Timeframe{{Label: "15m", Lookback: 60}}
	cfg.Scheduling.CoarseSeconds = 900
	cfg.Scheduling.FineSeconds = 60
	cfg.Scheduling.FetchTimeoutSeconds = 5
	cfg.Scheduling.SignalTimeoutSeconds = 5
	cfg.Risk.Leverage = 5
	cfg.Risk.TakeProfitPct = 6
	cfg.Risk.StopLossPct = 3
	cfg.Risk.MinConfidence = 0.2
	cfg.Risk.MinAgreeing = 2
	cfg.Risk.Tiers = []store.TierBand{
		{Floor: 0.2, Tier: 1}, {Floor: 0.4, Tier: 2}, {Floor: 0.6, Tier: 3}, {Floor: 0.8, Tier: 4},
	}
	cfg.Risk.NotionalPerTier = []float64{0, 500, 800, 1000, 1200}
	cfg.Indicators.MAFast = 5
	cfg.Indicators.MASlow = 20
	cfg.Indicators.EMAWindows = []int{12, 26}
	cfg.Indicators.RSIPeriod = 14
	cfg.Indicators.ATRPeriod = 14
	cfg.Indicators.BBWindow = 20
	cfg.Indicators.BBStdDev = 2
	cfg.Indicators.RSIOverbought = 70
	cfg.Indicators.RSIOversold = 30
	cfg.Indicators.VolumeWindow = 10
	return cfg
}

func newTestOrchestrator(cfg *store.Config, data *fakeData, signals interfaces.SignalProvider, mon *fakeMonitor, remaining time.Duration) (*Orchestrator, PositionEngine) {
	eng := engine.New(cfg)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	window := session.NewWindowAt(
		now.Add(remaining).Hour(), now.Add(remaining).Minute(), 0,
		func() time.Time { return now },
	)
	o := New(cfg, data, features.NewProducer(cfg), signals, decision.NewEngine(cfg), eng, window, mon)
	return o, eng
}

func TestCoarseCycleOpensPosition(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	data := &fakeData{price: 159}
	signals := &fakeSignals{sig: types.Signal{Direction: types.DirLong, Confidence: 0.72}}
	mon := &fakeMonitor{}
	o, eng := newTestOrchestrator(testConfig(), data, signals, mon, time.Hour)

	o.coarseCycle(context.Background())

	view := eng.View()
	if view.State != types.StateOpen || view.Side != types.SideLong {
		t.Fatalf("expected open long, got %+v", view)
	}
	if view.Tier != 3 {
		t.Errorf("tier = %d, want 3", view.Tier)
	}
	snap := mon.last(t)
	if snap.Position.State != types.StateOpen || snap.Alert != "" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestCoarseCycleSignalFailureHolds(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	data := &fakeData{price: 159}
	signals := &fakeSignals{err: errors.New("inference timeout")}
	mon := &fakeMonitor{}
	o, eng := newTestOrchestrator(testConfig(), data, signals, mon, time.Hour)

	o.coarseCycle(context.Background())

	if eng.View().State != types.StateFlat {
		t.Fatal("signal failure must degrade to hold")
	}
	if snap := mon.last(t); snap.Alert != "signal unavailable" {
		t.Errorf("alert = %q, want signal unavailable", snap.Alert)
	}

	// Next period proceeds normally once the provider recovers.
	signals.err = nil
	signals.sig = types.Signal{Direction: types.DirLong, Confidence: 0.5}
	o.coarseCycle(context.Background())
	if eng.View().State != types.StateOpen {
		t.Error("recovered provider should open on the next cycle")
	}
}

func TestCoarseCycleDataOutageSkips(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	data := &fakeData{klinesErr: marketdata.ErrDataUnavailable}
	signals := &fakeSignals{sig: types.Signal{Direction: types.DirLong, Confidence: 0.9}}
	mon := &fakeMonitor{}
	o, eng := newTestOrchestrator(testConfig(), data, signals, mon, time.Hour)

	o.coarseCycle(context.Background())

	if signals.calls != 0 {
		t.Error("no signal should be requested when data is unavailable")
	}
	if eng.View().State != types.StateFlat {
		t.Error("position must stay flat through a data outage")
	}
	if snap := mon.last(t); snap.Alert != "market data unavailable" {
		t.Errorf("alert = %q, want market data unavailable", snap.Alert)
	}
}

func TestDataOutageRetainsOpenPosition(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	data := &fakeData{price: 159}
	signals := &fakeSignals{sig: types.Signal{Direction: types.DirLong, Confidence: 0.72}}
	mon := &fakeMonitor{}
	o, eng := newTestOrchestrator(testConfig(), data, signals, mon, time.Hour)

	o.coarseCycle(context.Background())
	if eng.View().State != types.StateOpen {
		t.Fatal("setup: expected open position")
	}

	data.mu.Lock()
	data.klinesErr = errors.New("exchange down")
	data.mu.Unlock()
	o.coarseCycle(context.Background())

	if eng.View().State != types.StateOpen {
		t.Error("data outage must not touch the open position")
	}
}

func TestFineCycleClosesOnStop(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	data := &fakeData{price: 159}
	signals := &fakeSignals{sig: types.Signal{Direction: types.DirLong, Confidence: 0.72}}
	mon := &fakeMonitor{}
	o, eng := newTestOrchestrator(testConfig(), data, signals, mon, time.Hour)

	o.coarseCycle(context.Background())
	if eng.View().State != types.StateOpen {
		t.Fatal("setup: expected open position")
	}

	data.setPrice(150) // far through the 0.6% stop from 159
	o.fineCycle(context.Background())

	if eng.View().State != types.StateFlat {
		t.Fatal("fine cycle should have stopped the position out")
	}
	stats := eng.Stats()
	if stats.Closed != 1 || stats.RealizedPnL >= 0 {
		t.Errorf("stats = %+v, want one losing close", stats)
	}
}

func TestFineLoopNotBlockedBySlowSignalCall(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	cfg := testConfig()
	cfg.Scheduling.FineSeconds = 1
	data := &fakeData{price: 150}
	signals := &slowSignals{delay: 3 * time.Second}
	mon := &fakeMonitor{}
	o, eng := newTestOrchestrator(cfg, data, signals, mon, time.Hour)

	// Open a long at 159 before starting; the first coarse cycle will
	// then hang on the provider while price sits through the stop.
	if _, err := eng.Apply(context.Background(), types.TradeIntent{Action: types.ActOpenLong, Tier: 3}, 159, time.Now().UTC()); err != nil {
		t.Fatalf("setup open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	// The stop must be serviced on the fine cadence, well before the
	// provider call returns.
	limit := time.Now().Add(2500 * time.Millisecond)
	for eng.View().State != types.StateFlat {
		if time.Now().After(limit) {
			cancel()
			<-done
			t.Fatal("stop-loss not serviced while the signal call was in flight")
		}
		time.Sleep(25 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	stats := eng.Stats()
	if stats.Closed != 1 || stats.RealizedPnL >= 0 {
		t.Errorf("stats = %+v, want one losing stop-out", stats)
	}
}

func TestFineCycleFlatSkipsPriceFetch(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	data := &fakeData{price: 100}
	mon := &fakeMonitor{}
	o, _ := newTestOrchestrator(testConfig(), data, &fakeSignals{}, mon, time.Hour)

	o.fineCycle(context.Background())

	if data.priceCalls != 0 {
		t.Errorf("flat position should not fetch price, got %d calls", data.priceCalls)
	}
}
