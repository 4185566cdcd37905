package signal

import (
	"math"
	"testing"
	"time"

	"PolyRadar/internal/domain/models"
)

func bullishSnapshot() *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		Price:         65000,
		RSI:           12,
		ATR:           30,
		ADX:           20,
		MACDHist:      0.3,
		MACDHistDelta: 0.6,
		PriceVsVWAP:   0.05,
		VWAPSlope:     0.5,
		BBPosition:    0.05,
		PatternScore:  0.5,
	}
}

func TestComputeNilOnBadInput(t *testing.T) {
	e := NewEngine(Config{})
	if got := e.Compute(Input{UpBuy: 0, SpotPrice: 65000, Snapshot: bullishSnapshot()}); got != nil {
		t.Fatalf("expected nil for zero up price")
	}
	if got := e.Compute(Input{UpBuy: 0.5, SpotPrice: 0, Snapshot: bullishSnapshot()}); got != nil {
		t.Fatalf("expected nil for zero spot price")
	}
	if got := e.Compute(Input{UpBuy: 0.5, SpotPrice: 65000}); got != nil {
		t.Fatalf("expected nil for missing snapshot")
	}
}

func TestComputeOversoldBullish(t *testing.T) {
	e := NewEngine(Config{})
	res := e.Compute(Input{
		UpBuy:     0.52,
		DownBuy:   0.50,
		SpotPrice: 65000,
		Snapshot:  bullishSnapshot(),
		Regime:    models.RegimeRange,
		Phase:     models.PhaseMid,
	})
	if res == nil {
		t.Fatalf("expected signal")
	}
	if res.Direction != models.DirectionUp {
		t.Fatalf("expected UP, got %v (score=%v)", res.Direction, res.Score)
	}
	if res.Strength < 30 {
		t.Fatalf("expected actionable strength, got %d", res.Strength)
	}
	if res.Suggestion == nil {
		t.Fatalf("expected suggestion at strength %d", res.Strength)
	}
	if res.Suggestion.Entry != 0.52 {
		t.Fatalf("expected entry at up price, got %v", res.Suggestion.Entry)
	}
	wantTP := math.Min(0.52+0.05+float64(res.Strength)/100*0.10, 0.95)
	if math.Abs(res.Suggestion.TakeProfit-wantTP) > 1e-9 {
		t.Fatalf("tp mismatch: want %v got %v", wantTP, res.Suggestion.TakeProfit)
	}
	wantSL := math.Max(0.52-0.06, 0.03)
	if math.Abs(res.Suggestion.StopLoss-wantSL) > 1e-9 {
		t.Fatalf("sl mismatch: want %v got %v", wantSL, res.Suggestion.StopLoss)
	}
	if !res.Actionable() {
		t.Fatalf("expected actionable in MID phase at strength %d", res.Strength)
	}
}

func TestComputeScoreClamped(t *testing.T) {
	e := NewEngine(Config{})
	snap := bullishSnapshot()
	snap.ATR = 65000 // absurd volatility triggers the amplifier
	res := e.Compute(Input{
		UpBuy:     0.52,
		DownBuy:   0.50,
		SpotPrice: 65000,
		Snapshot:  snap,
		Regime:    models.RegimeTrendUp,
		Phase:     models.PhaseMid,
	})
	if res.Score < -1 || res.Score > 1 {
		t.Fatalf("score out of bounds: %v", res.Score)
	}
	if res.Strength > 100 {
		t.Fatalf("strength out of bounds: %d", res.Strength)
	}
}

func TestComputeChopDampening(t *testing.T) {
	e := NewEngine(Config{})
	in := Input{
		UpBuy:     0.52,
		DownBuy:   0.50,
		SpotPrice: 65000,
		Snapshot:  bullishSnapshot(),
		Regime:    models.RegimeRange,
		Phase:     models.PhaseMid,
	}
	base := e.Compute(in)
	in.Regime = models.RegimeChop
	chopped := e.Compute(in)
	if chopped.Score >= base.Score {
		t.Fatalf("expected chop to dampen score: base=%v chop=%v", base.Score, chopped.Score)
	}
	if math.Abs(chopped.Score-base.Score*0.5) > 1e-9 {
		t.Fatalf("expected 0.50 multiplier, base=%v chop=%v", base.Score, chopped.Score)
	}
}

func TestComputeCounterTrendCut(t *testing.T) {
	e := NewEngine(Config{})
	in := Input{
		UpBuy:     0.52,
		DownBuy:   0.50,
		SpotPrice: 65000,
		Snapshot:  bullishSnapshot(),
		Regime:    models.RegimeRange,
		Phase:     models.PhaseMid,
	}
	base := e.Compute(in)

	in.Regime = models.RegimeTrendUp
	aligned := e.Compute(in)
	if aligned.Score <= base.Score && base.Score < 1.0 {
		t.Fatalf("expected aligned trend boost: base=%v aligned=%v", base.Score, aligned.Score)
	}

	in.Regime = models.RegimeTrendDown
	counter := e.Compute(in)
	if counter.Score >= base.Score {
		t.Fatalf("expected counter-trend cut: base=%v counter=%v", base.Score, counter.Score)
	}
}

func TestComputeNeutralZone(t *testing.T) {
	e := NewEngine(Config{})
	res := e.Compute(Input{
		UpBuy:     0.52,
		DownBuy:   0.50,
		SpotPrice: 65000,
		Snapshot:  &models.IndicatorSnapshot{RSI: 50, BBPosition: 0.5},
		Regime:    models.RegimeRange,
		Phase:     models.PhaseMid,
	})
	if res.Direction != models.DirectionNeutral {
		t.Fatalf("expected NEUTRAL for flat snapshot, got %v", res.Direction)
	}
	if res.Suggestion != nil {
		t.Fatalf("expected no suggestion for neutral signal")
	}
}

func TestDivergenceDetected(t *testing.T) {
	e := NewEngine(Config{})
	history := make([]models.HistoryEntry, 0, 6)
	// Spot climbs 0.5% while the UP price barely moves.
	for i := 0; i < 6; i++ {
		history = append(history, models.HistoryEntry{
			Timestamp: time.Now(),
			Spot:      65000 + float64(i)*65,
			Up:        0.52,
			Down:      0.48,
		})
	}
	got := e.divergence(history)
	if got <= 0 {
		t.Fatalf("expected positive divergence, got %v", got)
	}
	if got > 1 {
		t.Fatalf("divergence out of bounds: %v", got)
	}
}

func TestSupportResistanceRange(t *testing.T) {
	e := NewEngine(Config{})
	history := make([]models.HistoryEntry, 0, 20)
	for i := 0; i < 20; i++ {
		history = append(history, models.HistoryEntry{Spot: 65000, Up: 0.40 + float64(i%10)*0.02, Down: 0.5})
	}
	// Range is 0.40..0.58. Price near the bottom scores positive.
	if got := e.supportResistance(history, 0.41); got != 0.8 {
		t.Fatalf("expected 0.8 near support, got %v", got)
	}
	if got := e.supportResistance(history, 0.57); got != -0.8 {
		t.Fatalf("expected -0.8 near resistance, got %v", got)
	}
	if got := e.supportResistance(history, 0.49); got != 0 {
		t.Fatalf("expected 0 mid-range, got %v", got)
	}
}

func TestSupportResistanceTightRange(t *testing.T) {
	e := NewEngine(Config{})
	history := make([]models.HistoryEntry, 0, 20)
	for i := 0; i < 20; i++ {
		history = append(history, models.HistoryEntry{Spot: 65000, Up: 0.50, Down: 0.50})
	}
	if got := e.supportResistance(history, 0.50); got != 0 {
		t.Fatalf("expected 0 for tight range, got %v", got)
	}
}

func TestPhaseFor(t *testing.T) {
	window := 15 * time.Minute
	cases := []struct {
		remaining time.Duration
		want      models.Phase
	}{
		{12 * time.Minute, models.PhaseEarly},
		{7 * time.Minute, models.PhaseMid},
		{3 * time.Minute, models.PhaseLate},
		{30 * time.Second, models.PhaseClosing},
	}
	for _, c := range cases {
		if got := PhaseFor(c.remaining, window); got != c.want {
			t.Fatalf("PhaseFor(%v) = %v, want %v", c.remaining, got, c.want)
		}
	}
	if got := PhaseFor(5*time.Minute, 0); got != models.PhaseClosing {
		t.Fatalf("expected CLOSING for zero window, got %v", got)
	}
}

func TestClosingNeverActionable(t *testing.T) {
	sig := &models.SignalResult{
		Direction: models.DirectionUp,
		Strength:  99,
		Phase:     models.PhaseClosing,
	}
	if sig.Actionable() {
		t.Fatalf("closing phase must never be actionable")
	}
}

func TestHistoryRingEviction(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(models.HistoryEntry{Spot: float64(i)})
	}
	if h.Len() != 3 {
		t.Fatalf("expected len 3, got %d", h.Len())
	}
	snap := h.Snapshot()
	if snap[0].Spot != 2 || snap[2].Spot != 4 {
		t.Fatalf("unexpected ring contents: %+v", snap)
	}
	h.Reset()
	if h.Len() != 0 {
		t.Fatalf("expected empty after reset")
	}
}

func TestDetectScenarioPriority(t *testing.T) {
	snap := &models.IndicatorSnapshot{RSI: 20, BBPosition: 0.1, PriceVsVWAP: 0.5, MACDHist: 0.5}
	sig := &models.SignalResult{
		Direction: models.DirectionUp,
		Strength:  80,
		Regime:    models.RegimeTrendUp,
		Phase:     models.PhaseClosing,
	}
	sc := DetectScenario(sig, snap)
	if sc == nil || !sc.Warning || sc.Name != "CLOSING - DO NOT TRADE" {
		t.Fatalf("closing warning must win, got %+v", sc)
	}

	sig.Phase = models.PhaseMid
	sc = DetectScenario(sig, snap)
	if sc == nil || sc.Warning || sc.Name != "SUPPORT BOUNCE" {
		t.Fatalf("expected support bounce, got %+v", sc)
	}

	sig.Regime = models.RegimeChop
	sc = DetectScenario(sig, snap)
	if sc == nil || !sc.Warning || sc.Name != "CHOP - AVOID TRADING" {
		t.Fatalf("expected chop warning, got %+v", sc)
	}
}

func TestDetectScenarioWeakSignal(t *testing.T) {
	snap := &models.IndicatorSnapshot{RSI: 40, BBPosition: 0.5}
	sig := &models.SignalResult{
		Direction: models.DirectionUp,
		Strength:  15,
		Regime:    models.RegimeRange,
		Phase:     models.PhaseMid,
	}
	sc := DetectScenario(sig, snap)
	if sc == nil || !sc.Warning || sc.Name != "WEAK SIGNAL" {
		t.Fatalf("expected weak signal warning, got %+v", sc)
	}
}

func TestWeightsSum(t *testing.T) {
	if got := DefaultWeights().Sum(); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("default weights must sum to 1, got %v", got)
	}
}
