// Package decision maps a feature snapshot plus an AI signal into a
// trade intent. Pure functions only: no I/O, no clock reads, fully
// deterministic for a given input.
package decision

import (
	"fmt"

	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/types"
)

// Engine holds the immutable decision parameters taken from config.
type Engine struct {
	minConfidence float64
	minAgreeing   int
	tiers         []store.TierBand
	rsiOverbought float64
	rsiOversold   float64
}

func NewEngine(cfg *store.Config) *Engine {
	return &Engine{
		minConfidence: cfg.Risk.MinConfidence,
		minAgreeing:   cfg.Risk.MinAgreeing,
		tiers:         cfg.Risk.Tiers,
		rsiOverbought: cfg.Indicators.RSIOverbought,
		rsiOversold:   cfg.Indicators.RSIOversold,
	}
}

// Decide turns a snapshot and signal into an intent against the current
// position view. A nil signal (provider failure this cycle) holds.
func (e *Engine) Decide(snap types.FeatureSnapshot, sig *types.Signal, pos types.PositionView) types.TradeIntent {
	if sig == nil {
		return hold("no signal this cycle")
	}
	if sig.Direction == types.DirNeutral {
		return hold("neutral signal")
	}
	if sig.Confidence < e.minConfidence {
		return hold(fmt.Sprintf("confidence %.2f below minimum %.2f", sig.Confidence, e.minConfidence))
	}

	// Reversal against an open position always resolves to close, never
	// a direct flip. A fresh open needs a later cycle from flat.
	if pos.State == types.StateOpen {
		if pos.Side.Opposes(sig.Direction) {
			return types.TradeIntent{
				Action: types.ActClose,
				Reason: fmt.Sprintf("signal reversed against %s position", pos.Side),
			}
		}
		return hold("already positioned with the signal")
	}
	if pos.State == types.StateClosing {
		return hold("position close in progress")
	}

	agreeing, total := e.countAgreement(snap, sig.Direction)
	if agreeing < e.minAgreeing {
		return hold(fmt.Sprintf("only %d/%d features agree with %s", agreeing, total, sig.Direction))
	}

	tier := e.TierOf(sig.Confidence)
	if tier == 0 {
		return hold("confidence maps to tier 0")
	}

	action := types.ActOpenLong
	if sig.Direction == types.DirShort {
		action = types.ActOpenShort
	}
	return types.TradeIntent{
		Action: action,
		Tier:   tier,
		Reason: fmt.Sprintf("%s confidence %.2f, %d/%d features agree", sig.Direction, sig.Confidence, agreeing, total),
	}
}

// TierOf maps confidence to a size tier via the ordered band table,
// highest floor first. Monotonically non-decreasing in confidence.
func (e *Engine) TierOf(confidence float64) int {
	for i := len(e.tiers) - 1; i >= 0; i-- {
		if confidence >= e.tiers[i].Floor {
			return e.tiers[i].Tier
		}
	}
	return 0
}

// countAgreement scores the independent technical features against the
// signal direction: trend (fast vs slow MA), momentum (MACD histogram),
// and the RSI veto (not at the opposing extreme).
func (e *Engine) countAgreement(snap types.FeatureSnapshot, dir types.Direction) (agreeing, total int) {
	tf, ok := snap.PrimaryFeatures()
	if !ok {
		return 0, 0
	}
	total = 3

	trendUp := tf.MAFast > tf.MASlow
	if (dir == types.DirLong && trendUp) || (dir == types.DirShort && !trendUp) {
		agreeing++
	}

	momentumUp := tf.MACDHist > 0
	if (dir == types.DirLong && momentumUp) || (dir == types.DirShort && !momentumUp) {
		agreeing++
	}

	if dir == types.DirLong && tf.RSI < e.rsiOverbought {
		agreeing++
	}
	if dir == types.DirShort && tf.RSI > e.rsiOversold {
		agreeing++
	}
	return agreeing, total
}

func hold(reason string) types.TradeIntent {
	return types.TradeIntent{Action: types.ActHold, Reason: reason}
}
