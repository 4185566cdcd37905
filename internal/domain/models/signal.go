package models

import "time"

// Regime classifies the short-term market structure from ADX and
// recent candle direction.
type Regime string

const (
	RegimeTrendUp   Regime = "TREND_UP"
	RegimeTrendDown Regime = "TREND_DOWN"
	RegimeRange     Regime = "RANGE"
	RegimeChop      Regime = "CHOP"
)

// Phase segments the market window by fraction of time remaining.
type Phase string

const (
	PhaseEarly   Phase = "EARLY"
	PhaseMid     Phase = "MID"
	PhaseLate    Phase = "LATE"
	PhaseClosing Phase = "CLOSING"
)

// MinStrength returns the minimum composite strength a signal must
// reach before it is actionable in this phase.
func (p Phase) MinStrength() int {
	switch p {
	case PhaseEarly:
		return 50
	case PhaseMid:
		return 30
	case PhaseLate:
		return 70
	default:
		return 999
	}
}

// Direction is the side a signal points at.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// IndicatorSnapshot carries every derived value computed from the
// candle buffer for one evaluation cycle.
type IndicatorSnapshot struct {
	Price float64

	RSI float64
	ATR float64
	ADX float64

	Regime Regime

	MACDLine      float64
	MACDSignal    float64
	MACDHist      float64
	MACDHistDelta float64

	VWAP        float64
	PriceVsVWAP float64
	VWAPSlope   float64

	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	BBWidth    float64
	BBPosition float64
	BBSqueeze  bool

	TrendDirection  float64
	TrendConfidence float64

	PatternScore float64
}

// ComponentScores holds the per-component contributions before and
// after weighting. SRRaw is kept alongside the trend-filtered SR so
// the reasoning output can show both.
type ComponentScores struct {
	Momentum   float64
	Divergence float64
	SRRaw      float64
	SR         float64
	MACD       float64
	VWAP       float64
	Bollinger  float64
	Trend      float64
}

// Suggestion is a concrete entry with derived exit levels.
type Suggestion struct {
	Entry      float64
	TakeProfit float64
	StopLoss   float64
}

// Scenario names the dominant setup recognised for this cycle.
type Scenario struct {
	Name    string
	Warning bool
}

// SignalResult is the full output of one signal evaluation.
type SignalResult struct {
	Timestamp  time.Time
	Direction  Direction
	Strength   int
	Score      float64
	Components ComponentScores
	Regime     Regime
	Phase      Phase
	HighVol    bool

	SpotPrice float64
	UpPrice   float64
	DownPrice float64

	Suggestion *Suggestion
	Scenario   *Scenario
}

// Actionable reports whether this signal clears the phase gate. The
// closing phase never trades regardless of strength.
func (s *SignalResult) Actionable() bool {
	if s.Phase == PhaseClosing || s.Direction == DirectionNeutral {
		return false
	}
	return s.Strength >= s.Phase.MinStrength()
}

// Resolution is the terminal state of a monitored position.
type Resolution string

const (
	ResolutionTakeProfit Resolution = "TP"
	ResolutionStopLoss   Resolution = "SL"
	ResolutionCancel     Resolution = "CANCEL"
	ResolutionTimeout    Resolution = "TIMEOUT"
)

// MonitorResult reports how a position monitor run ended.
type MonitorResult struct {
	Resolution Resolution
	ExitPrice  float64
	Elapsed    time.Duration
}

// TradeEvent is an accounting record for one open or close action.
type TradeEvent struct {
	Timestamp time.Time
	Action    string
	Direction Direction
	Shares    float64
	Price     float64
	Reason    string
	PnL       float64
	SessionPL float64
}

// OrderStatus mirrors the exchange-side lifecycle of a placed order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)
