// Package orchestrator runs the two trading cadences: a coarse cycle
// that refreshes data and asks for a fresh signal, and a fine cycle
// that reviews the open position against price and the session clock.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"quant-trading-bot/internal/decision"
	"quant-trading-bot/internal/engine"
	"quant-trading-bot/internal/eod"
	"quant-trading-bot/internal/features"
	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/logger"
	"quant-trading-bot/internal/session"
	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/trace"
	"quant-trading-bot/internal/tradelog"
	"quant-trading-bot/internal/types"
)

// PositionEngine is the state machine surface the orchestrator drives.
// Satisfied by engine.Engine and its observability wrapper.
type PositionEngine interface {
	View() types.PositionView
	Stats() types.TradeStats
	Apply(ctx context.Context, intent types.TradeIntent, price float64, now time.Time) (engine.TransitionResult, error)
	Supervise(ctx context.Context, price float64, remaining time.Duration) (engine.TransitionResult, bool)
	CloseAll(ctx context.Context, price float64, reason types.CloseReason) (engine.TransitionResult, bool)
}

type Orchestrator struct {
	cfg      *store.Config
	data     interfaces.MarketData
	producer *features.Producer
	signals  interfaces.SignalProvider
	decider  *decision.Engine
	eng      PositionEngine
	window   *session.Window
	monitor  interfaces.Monitor

	// written by the coarse loop, read by both loops via push
	mu         sync.Mutex
	lastSignal *types.Signal
	lastIntent *types.TradeIntent
}

func New(
	cfg *store.Config,
	data interfaces.MarketData,
	producer *features.Producer,
	signals interfaces.SignalProvider,
	decider *decision.Engine,
	eng PositionEngine,
	window *session.Window,
	monitor interfaces.Monitor,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		data:     data,
		producer: producer,
		signals:  signals,
		decider:  decider,
		eng:      eng,
		window:   window,
		monitor:  monitor,
	}
}

// Run blocks until ctx is cancelled, then flattens any open position
// and writes the end-of-day summary. The two cadences run in their own
// goroutines so a slow data or signal call never delays position
// review; the position engine's lock is the only coordination point.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.data.Start(ctx, []string{o.cfg.Symbol}); err != nil {
		return err
	}
	defer o.data.Stop(context.Background())

	logger.Info(ctx, "Orchestrator started",
		"symbol", o.cfg.Symbol,
		"coarse_interval", o.cfg.CoarseInterval().String(),
		"fine_interval", o.cfg.FineInterval().String(),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.coarseLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		o.fineLoop(ctx)
	}()
	wg.Wait()

	o.shutdown()
	return nil
}

func (o *Orchestrator) coarseLoop(ctx context.Context) {
	coarse := time.NewTicker(o.cfg.CoarseInterval())
	defer coarse.Stop()

	// First signal immediately instead of a full coarse period later.
	o.coarseCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-coarse.C:
			o.coarseCycle(ctx)
		}
	}
}

func (o *Orchestrator) fineLoop(ctx context.Context) {
	fine := time.NewTicker(o.cfg.FineInterval())
	defer fine.Stop()
	eodTick := time.NewTicker(time.Minute)
	defer eodTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fine.C:
			o.fineCycle(ctx)
		case <-eodTick.C:
			o.maybeSummarize(ctx)
		}
	}
}

// coarseCycle fetches candles, computes indicators, asks the provider
// for a signal and applies the resulting intent. A data outage skips
// the whole cycle; a signal failure degrades to hold. The open position
// stays under fine-loop supervision either way.
func (o *Orchestrator) coarseCycle(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "orchestrator.coarseCycle")
	defer span.End()
	timer := logger.StartOperation(ctx, "coarse_cycle", "symbol", o.cfg.Symbol)

	bars, err := o.fetchAll(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Market data unavailable, skipping cycle", err, "symbol", o.cfg.Symbol)
		timer.EndWithError(err)
		o.push("market data unavailable")
		return
	}

	snap := o.producer.Compute(o.cfg.Symbol, bars, time.Now().UTC())

	sigCtx, cancel := context.WithTimeout(ctx, o.cfg.SignalTimeout())
	sig, err := o.signals.Infer(sigCtx, snap)
	cancel()
	alert := ""
	var last *types.Signal
	if err != nil {
		logger.Warn(ctx, "Signal unavailable this cycle, holding", "symbol", o.cfg.Symbol, "error", err.Error())
		alert = "signal unavailable"
	} else {
		last = &sig
	}

	intent := o.decider.Decide(snap, last, o.eng.View())
	o.mu.Lock()
	o.lastSignal = last
	o.lastIntent = &intent
	o.mu.Unlock()
	o.journalSignal(ctx, snap, last, intent)

	if intent.Action != types.ActHold {
		priceCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout())
		price, err := o.data.LastPrice(priceCtx, o.cfg.Symbol)
		cancel()
		if err != nil {
			logger.ErrorWithErr(ctx, "Price unavailable, intent dropped", err, "symbol", o.cfg.Symbol)
			timer.EndWithError(err)
			o.push("price unavailable")
			return
		}
		if _, err := o.eng.Apply(ctx, intent, price, time.Now().UTC()); err != nil {
			logger.ErrorWithErr(ctx, "Intent rejected", err, "symbol", o.cfg.Symbol, "action", string(intent.Action))
			alert = "intent rejected: " + err.Error()
		}
	}

	timer.End("action", string(intent.Action))
	o.push(alert)
}

// fineCycle reviews the open position against the latest price and the
// time remaining before forced closure. Flat positions cost nothing.
func (o *Orchestrator) fineCycle(ctx context.Context) {
	if o.eng.View().State != types.StateOpen {
		return
	}
	ctx, span := trace.StartSpan(ctx, "orchestrator.fineCycle")
	defer span.End()

	priceCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout())
	price, err := o.data.LastPrice(priceCtx, o.cfg.Symbol)
	cancel()
	if err != nil {
		logger.Warn(ctx, "Price unavailable, review skipped", "symbol", o.cfg.Symbol, "error", err.Error())
		return
	}

	if res, closed := o.eng.Supervise(ctx, price, o.window.Remaining()); closed {
		logger.Info(ctx, "Position closed by supervisor",
			"symbol", o.cfg.Symbol,
			"reason", string(res.CloseReason),
			"realized_pnl", res.RealizedPnL,
		)
		o.push("")
	}
}

// fetchAll pulls candle history for every configured timeframe under a
// single fetch deadline.
func (o *Orchestrator) fetchAll(ctx context.Context) (map[string][]types.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout())
	defer cancel()

	bars := make(map[string][]types.Candle, len(o.cfg.Timeframes))
	for _, tf := range o.cfg.Timeframes {
		cs, err := o.data.Klines(ctx, o.cfg.Symbol, tf.Label, tf.Lookback)
		if err != nil {
			return nil, err
		}
		bars[tf.Label] = cs
	}
	return bars, nil
}

// journalSignal records each signal/intent pair so EOD analysis can
// line decisions up against outcomes.
func (o *Orchestrator) journalSignal(ctx context.Context, snap types.FeatureSnapshot, sig *types.Signal, intent types.TradeIntent) {
	entry := tradelog.SignalEntry{
		Symbol: o.cfg.Symbol,
		Action: string(intent.Action),
		Tier:   intent.Tier,
		Reason: intent.Reason,
	}
	if sig != nil {
		entry.Direction = string(sig.Direction)
		entry.Confidence = sig.Confidence
	}
	if tf, ok := snap.PrimaryFeatures(); ok {
		entry.Price = tf.Close
	}
	if err := tradelog.AppendSignal(entry); err != nil {
		logger.Warn(ctx, "Failed to journal signal", "error", err)
	}
}

func (o *Orchestrator) push(alert string) {
	if o.monitor == nil {
		return
	}
	o.mu.Lock()
	sig, intent := o.lastSignal, o.lastIntent
	o.mu.Unlock()
	o.monitor.Push(types.CycleSnapshot{
		At:         time.Now().UTC(),
		Symbol:     o.cfg.Symbol,
		Position:   o.eng.View(),
		LastSignal: sig,
		LastIntent: intent,
		Stats:      o.eng.Stats(),
		Alert:      alert,
	})
}

func (o *Orchestrator) maybeSummarize(ctx context.Context) {
	end, err := time.Parse("15:04", o.cfg.Session.End)
	if err != nil {
		return
	}
	if ok, _ := eod.ShouldRunNow(end.Hour(), end.Minute()); ok {
		if p, err := eod.SummarizeToday(); err == nil && p != "" {
			logger.Info(ctx, "EOD summary written", "path", p)
		}
	}
}

// shutdown flattens any open position at the last known price and
// writes the day's summary. Runs with a fresh context since the run
// context is already cancelled.
func (o *Orchestrator) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	view := o.eng.View()
	if view.State == types.StateOpen {
		price, err := o.data.LastPrice(ctx, o.cfg.Symbol)
		if err != nil {
			// Exit at entry so realized stats stay truthful.
			price = view.EntryPrice
			logger.Warn(ctx, "Price unavailable on shutdown, closing at entry", "symbol", o.cfg.Symbol)
		}
		if res, closed := o.eng.CloseAll(ctx, price, types.CloseShutdown); closed {
			logger.Info(ctx, "Position flattened on shutdown",
				"symbol", o.cfg.Symbol, "realized_pnl", res.RealizedPnL)
		}
	}

	if p, err := eod.SummarizeToday(); err == nil && p != "" {
		logger.Info(ctx, "EOD summary written", "path", p)
	}
	o.push("")
}
