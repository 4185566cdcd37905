package signal

import (
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/internal/indicator"
)

// Weights distribute the composite score across components. They are
// expected to sum to 1.0.
type Weights struct {
	Momentum   float64
	Divergence float64
	SR         float64
	MACD       float64
	VWAP       float64
	Bollinger  float64
}

func DefaultWeights() Weights {
	return Weights{
		Momentum:   0.30,
		Divergence: 0.20,
		SR:         0.10,
		MACD:       0.15,
		VWAP:       0.15,
		Bollinger:  0.10,
	}
}

func (w Weights) Sum() float64 {
	return w.Momentum + w.Divergence + w.SR + w.MACD + w.VWAP + w.Bollinger
}

// Config tunes the scoring thresholds. Zero values fall back to the
// defaults the engine was calibrated with.
type Config struct {
	Weights Weights

	VolThreshold float64
	VolAmplifier float64

	ChopMult    float64
	TrendBoost  float64
	CounterMult float64

	NeutralZone        float64
	DivergenceLookback int
	SRLookback         int

	TPBaseSpread    float64
	TPStrengthScale float64
	TPMaxPrice      float64
	SLDefault       float64
	SLMinPrice      float64

	SuggestionMinStrength int
}

func (c *Config) normalize() {
	if c.Weights.Sum() == 0 {
		c.Weights = DefaultWeights()
	}
	if c.VolThreshold == 0 {
		c.VolThreshold = 0.03
	}
	if c.VolAmplifier == 0 {
		c.VolAmplifier = 1.3
	}
	if c.ChopMult == 0 {
		c.ChopMult = 0.50
	}
	if c.TrendBoost == 0 {
		c.TrendBoost = 1.15
	}
	if c.CounterMult == 0 {
		c.CounterMult = 0.70
	}
	if c.NeutralZone == 0 {
		c.NeutralZone = 0.10
	}
	if c.DivergenceLookback == 0 {
		c.DivergenceLookback = 6
	}
	if c.SRLookback == 0 {
		c.SRLookback = 20
	}
	if c.TPBaseSpread == 0 {
		c.TPBaseSpread = 0.05
	}
	if c.TPStrengthScale == 0 {
		c.TPStrengthScale = 0.10
	}
	if c.TPMaxPrice == 0 {
		c.TPMaxPrice = 0.95
	}
	if c.SLDefault == 0 {
		c.SLDefault = 0.06
	}
	if c.SLMinPrice == 0 {
		c.SLMinPrice = 0.03
	}
	if c.SuggestionMinStrength == 0 {
		c.SuggestionMinStrength = 30
	}
}

// Engine combines indicator snapshots, order book quotes and recent
// price history into a directional signal.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	cfg.normalize()
	return &Engine{cfg: cfg}
}

// Input carries everything one evaluation needs.
type Input struct {
	UpBuy     float64
	DownBuy   float64
	SpotPrice float64
	Snapshot  *models.IndicatorSnapshot
	History   []models.HistoryEntry
	Regime    models.Regime
	Phase     models.Phase
}

// Compute scores one cycle. Returns nil when the inputs cannot
// produce a meaningful signal.
func (e *Engine) Compute(in Input) *models.SignalResult {
	if in.UpBuy <= 0 || in.SpotPrice <= 0 || in.Snapshot == nil {
		return nil
	}
	snap := in.Snapshot
	cfg := e.cfg

	trend := e.trendStrength(in.History)

	var comps models.ComponentScores
	comps.Trend = trend

	// BTC momentum: RSI zone blended with the candle pattern score.
	rsiC := rsiComponent(snap.RSI)
	comps.Momentum = rsiC*0.4 + clamp(snap.PatternScore/0.5, -1, 1)*0.6

	// Spot versus market divergence over the lookback window.
	comps.Divergence = e.divergence(in.History)

	// Support/resistance of the UP price, filtered by the trend.
	comps.SRRaw = e.supportResistance(in.History, in.UpBuy)
	comps.SR = comps.SRRaw
	if abs(trend) > 0.3 {
		if (trend > 0 && comps.SRRaw < 0) || (trend < 0 && comps.SRRaw > 0) {
			reduction := min(abs(trend)*2, 1.0)
			comps.SR = comps.SRRaw * (1.0 - reduction)
		}
	}

	comps.MACD = macdComponent(snap.MACDHist, snap.MACDHistDelta)
	comps.VWAP = vwapComponent(snap.PriceVsVWAP, snap.VWAPSlope)
	comps.Bollinger = bollingerComponent(snap.BBPosition, snap.BBSqueeze)

	score := comps.Momentum*cfg.Weights.Momentum +
		comps.Divergence*cfg.Weights.Divergence +
		comps.SR*cfg.Weights.SR +
		comps.MACD*cfg.Weights.MACD +
		comps.VWAP*cfg.Weights.VWAP +
		comps.Bollinger*cfg.Weights.Bollinger

	// Volatility amplifier.
	volPct := 0.0
	if in.SpotPrice > 0 {
		volPct = snap.ATR / in.SpotPrice * 100
	}
	highVol := volPct > cfg.VolThreshold
	if highVol {
		score *= cfg.VolAmplifier
	}

	// Regime adjustment: dampen chop, boost aligned trends, cut
	// counter-trend signals.
	switch in.Regime {
	case models.RegimeChop:
		score *= cfg.ChopMult
	case models.RegimeTrendUp, models.RegimeTrendDown:
		trendDir := 1.0
		if in.Regime == models.RegimeTrendDown {
			trendDir = -1.0
		}
		if (score > 0 && trendDir > 0) || (score < 0 && trendDir < 0) {
			score *= cfg.TrendBoost
		} else {
			score *= cfg.CounterMult
		}
	}

	score = clamp(score, -1, 1)

	direction := models.DirectionNeutral
	switch {
	case score > cfg.NeutralZone:
		direction = models.DirectionUp
	case score < -cfg.NeutralZone:
		direction = models.DirectionDown
	}
	strength := int(abs(score) * 100)

	result := &models.SignalResult{
		Timestamp:  time.Now(),
		Direction:  direction,
		Strength:   strength,
		Score:      score,
		Components: comps,
		Regime:     in.Regime,
		Phase:      in.Phase,
		HighVol:    highVol,
		SpotPrice:  in.SpotPrice,
		UpPrice:    in.UpBuy,
		DownPrice:  in.DownBuy,
	}

	if strength >= cfg.SuggestionMinStrength && direction != models.DirectionNeutral {
		entry := in.UpBuy
		if direction == models.DirectionDown {
			entry = in.DownBuy
		}
		spread := cfg.TPBaseSpread + float64(strength)/100*cfg.TPStrengthScale
		result.Suggestion = &models.Suggestion{
			Entry:      entry,
			TakeProfit: min(entry+spread, cfg.TPMaxPrice),
			StopLoss:   max(entry-cfg.SLDefault, cfg.SLMinPrice),
		}
	}

	result.Scenario = DetectScenario(result, snap)
	return result
}

// trendStrength runs a fast/slow EMA crossover on the recent UP
// prices. Needs at least 12 usable observations.
func (e *Engine) trendStrength(history []models.HistoryEntry) float64 {
	if len(history) < 12 {
		return 0
	}
	start := len(history) - 20
	if start < 0 {
		start = 0
	}
	ups := make([]float64, 0, 20)
	for _, h := range history[start:] {
		if h.Up > 0 {
			ups = append(ups, h.Up)
		}
	}
	if len(ups) < 12 {
		return 0
	}
	fast := indicator.EMA(ups, 5)
	slow := indicator.EMA(ups, 12)
	if slow <= 0 {
		return 0
	}
	diff := (fast - slow) / slow
	return clamp(diff/0.02, -1, 1)
}

// divergence flags spot moving while the market price lags behind.
func (e *Engine) divergence(history []models.HistoryEntry) float64 {
	lb := e.cfg.DivergenceLookback
	if len(history) < lb {
		return 0
	}
	old := history[len(history)-lb]
	latest := history[len(history)-1]
	if old.Spot <= 0 || old.Up <= 0 {
		return 0
	}
	spotVar := (latest.Spot - old.Spot) / old.Spot * 100
	polyVar := latest.Up - old.Up
	switch {
	case spotVar > 0.01 && polyVar < 0.02:
		return min(spotVar*8, 1.0)
	case spotVar < -0.01 && polyVar > -0.02:
		return max(spotVar*8, -1.0)
	default:
		return 0
	}
}

// supportResistance positions the current UP price within its recent
// range. Tight ranges carry no information and score zero.
func (e *Engine) supportResistance(history []models.HistoryEntry, upBuy float64) float64 {
	if len(history) < 10 {
		return 0
	}
	ups := make([]float64, 0, len(history))
	for _, h := range history {
		if h.Up > 0 {
			ups = append(ups, h.Up)
		}
	}
	if len(ups) < 10 {
		return 0
	}
	if len(ups) > e.cfg.SRLookback {
		ups = ups[len(ups)-e.cfg.SRLookback:]
	}
	lo, hi := ups[0], ups[0]
	for _, u := range ups[1:] {
		if u < lo {
			lo = u
		}
		if u > hi {
			hi = u
		}
	}
	rng := hi - lo
	if rng <= 0.03 {
		return 0
	}
	pos := (upBuy - lo) / rng
	switch {
	case pos < 0.20:
		return 0.8
	case pos < 0.35:
		return 0.4
	case pos > 0.80:
		return -0.8
	case pos > 0.65:
		return -0.4
	default:
		return 0
	}
}

func rsiComponent(rsi float64) float64 {
	switch {
	case rsi < 25:
		return 1.0
	case rsi < 35:
		return 0.6
	case rsi < 45:
		return 0.2
	case rsi > 75:
		return -1.0
	case rsi > 65:
		return -0.6
	case rsi > 55:
		return -0.2
	default:
		return 0
	}
}

func macdComponent(hist, delta float64) float64 {
	var score float64
	switch {
	case abs(delta) > 0.5:
		score = signOf(delta)
	case abs(delta) > 0.1:
		score = 0.5 * signOf(delta)
	}
	// Boost when histogram and delta agree.
	if hist > 0 && delta > 0 {
		score = min(score*1.2, 1.0)
	} else if hist < 0 && delta < 0 {
		score = max(score*1.2, -1.0)
	}
	return score
}

func vwapComponent(priceVsVWAP, slope float64) float64 {
	var score float64
	if priceVsVWAP > 0.02 {
		score += 0.5
	} else if priceVsVWAP < -0.02 {
		score -= 0.5
	}
	if slope > 0.2 {
		score += 0.5
	} else if slope < -0.2 {
		score -= 0.5
	}
	return clamp(score, -1, 1)
}

func bollingerComponent(pos float64, squeeze bool) float64 {
	var score float64
	switch {
	case pos < 0.15:
		score = 0.8
	case pos < 0.30:
		score = 0.4
	case pos > 0.85:
		score = -0.8
	case pos > 0.70:
		score = -0.4
	}
	// Breaking out of a squeeze carries more weight.
	if squeeze {
		score = clamp(score*1.5, -1, 1)
	}
	return score
}

func signOf(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
