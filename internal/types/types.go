package types

import "time"

// Candle is one OHLCV bar for a symbol/timeframe.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// TimeframeFeatures holds the derived indicator values for one timeframe.
type TimeframeFeatures struct {
	Timeframe   string
	Close       float64
	MAFast      float64
	MASlow      float64
	EMA         map[int]float64
	MACD        float64
	MACDSignal  float64
	MACDHist    float64
	RSI         float64
	ATR         float64
	BB          struct{ Middle, Upper, Lower float64 }
	VolumeRatio float64
}

// FeatureSnapshot is an immutable indicator bundle for one symbol at one
// point in time. Produced once per coarse cycle.
type FeatureSnapshot struct {
	Symbol     string
	ProducedAt time.Time
	Timeframes map[string]TimeframeFeatures
	// Primary is the timeframe label decisions are keyed on.
	Primary string
}

// PrimaryFeatures returns the indicator set for the primary timeframe.
func (fs FeatureSnapshot) PrimaryFeatures() (TimeframeFeatures, bool) {
	tf, ok := fs.Timeframes[fs.Primary]
	return tf, ok
}

type Direction string

const (
	DirLong    Direction = "LONG"
	DirShort   Direction = "SHORT"
	DirNeutral Direction = "NEUTRAL"
)

// Signal is the AI provider's view of the market: a direction, a
// confidence score in [0,1], and optional support/resistance hints.
type Signal struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Support    float64   `json:"support,omitempty"`
	Resistance float64   `json:"resistance,omitempty"`
	Reason     string    `json:"reason"`
	IssuedAt   time.Time `json:"-"`
}

type Action string

const (
	ActOpenLong  Action = "OPEN_LONG"
	ActOpenShort Action = "OPEN_SHORT"
	ActClose     Action = "CLOSE"
	ActHold      Action = "HOLD"
)

// TradeIntent is the Decision Engine's output, consumed immediately by
// the position state machine. Tier 0 means no position.
type TradeIntent struct {
	Action Action
	Tier   int
	Reason string
}

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Sign returns +1 for long, -1 for short.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Opposes reports whether d points against the held side.
func (s Side) Opposes(d Direction) bool {
	return (s == SideLong && d == DirShort) || (s == SideShort && d == DirLong)
}

type PositionState string

const (
	StateFlat    PositionState = "FLAT"
	StateOpen    PositionState = "OPEN"
	StateClosing PositionState = "CLOSING"
)

type CloseReason string

const (
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
	CloseForced     CloseReason = "FORCED_CLOSE"
	CloseReversal   CloseReason = "REVERSAL"
	CloseShutdown   CloseReason = "SHUTDOWN"
)

// PositionView is a read-only copy of the shared position, safe to hand
// to the decision engine and the monitoring sink.
type PositionView struct {
	State      PositionState
	Symbol     string
	Side       Side
	EntryPrice float64
	Tier       int
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
}

// UnrealizedPnL values the open position at mark against the notional
// assigned to its tier.
func (pv PositionView) UnrealizedPnL(mark, notional float64) float64 {
	if pv.State != StateOpen || pv.EntryPrice == 0 {
		return 0
	}
	return (mark - pv.EntryPrice) / pv.EntryPrice * pv.Side.Sign() * notional
}

// TradeStats accumulates realized results across the run.
type TradeStats struct {
	Opened      int
	Closed      int
	Wins        int
	RealizedPnL float64
}

// CycleSnapshot is the read-only bundle pushed to the monitoring sink
// after each cycle.
type CycleSnapshot struct {
	At         time.Time
	Symbol     string
	Position   PositionView
	LastSignal *Signal
	LastIntent *TradeIntent
	Stats      TradeStats
	Alert      string
}
