package indicator

import "PolyRadar/internal/domain/models"

// Params configures the indicator periods. Zero values fall back to
// the scalping defaults.
type Params struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBPeriod   int
	BBStd      float64
	ADXPeriod  int
}

func (p *Params) normalize() {
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = DefaultRSIPeriod
	}
	if p.MACDFast <= 0 {
		p.MACDFast = DefaultMACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = DefaultMACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = DefaultMACDSignal
	}
	if p.BBPeriod <= 0 {
		p.BBPeriod = DefaultBBPeriod
	}
	if p.BBStd <= 0 {
		p.BBStd = DefaultBBStd
	}
	if p.ADXPeriod <= 0 {
		p.ADXPeriod = DefaultADXPeriod
	}
}

// Engine computes full indicator snapshots from a candle window.
type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	params.normalize()
	return &Engine{params: params}
}

// Snapshot derives every indicator from the given candles. The slice
// must be ordered oldest first.
func (e *Engine) Snapshot(candles []models.Candle) *models.IndicatorSnapshot {
	snap := &models.IndicatorSnapshot{Regime: models.RegimeRange}
	if len(candles) == 0 {
		snap.RSI = neutralRSI
		snap.ADX = neutralADX
		snap.BBPosition = 0.5
		return snap
	}

	snap.Price = candles[len(candles)-1].Close
	snap.RSI = RSI(candles, e.params.RSIPeriod)
	snap.ATR = ATR(candles)

	snap.Regime, snap.ADX = DetectRegime(candles)

	snap.MACDLine, snap.MACDSignal, snap.MACDHist, snap.MACDHistDelta =
		MACD(candles, e.params.MACDFast, e.params.MACDSlow, e.params.MACDSignal)

	snap.VWAP, snap.PriceVsVWAP, snap.VWAPSlope = VWAP(candles)

	snap.BBUpper, snap.BBMiddle, snap.BBLower, snap.BBWidth, snap.BBPosition, snap.BBSqueeze =
		Bollinger(candles, e.params.BBPeriod, e.params.BBStd)

	pattern := AnalyzePattern(candles)
	snap.PatternScore = pattern.Score
	switch pattern.Direction {
	case models.DirectionUp:
		snap.TrendDirection = 1
	case models.DirectionDown:
		snap.TrendDirection = -1
	}
	snap.TrendConfidence = pattern.Confidence

	return snap
}
