package indicator

import (
	"math"
	"testing"

	"PolyRadar/internal/domain/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		out[i] = models.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     open,
			High:     c + 10,
			Low:      c - 10,
			Close:    c,
			Volume:   100,
		}
	}
	return out
}

func TestRSIInsufficientData(t *testing.T) {
	got := RSI(candlesFromCloses(100, 101, 102), 7)
	if got != 50.0 {
		t.Fatalf("expected neutral 50, got %v", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	got := RSI(candlesFromCloses(100, 101, 102, 103, 104, 105, 106, 107, 108), 7)
	if got != 100.0 {
		t.Fatalf("expected 100 for monotonic rise, got %v", got)
	}
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{100, 98, 103, 99, 104, 97, 105, 101, 96, 102}
	got := RSI(candlesFromCloses(closes...), 7)
	if got < 0 || got > 100 {
		t.Fatalf("rsi out of bounds: %v", got)
	}
}

func TestATREmpty(t *testing.T) {
	if got := ATR(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := ATR(candlesFromCloses(100)); got != 0 {
		t.Fatalf("expected 0 for single candle, got %v", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	// Each candle spans high-low = 20 and closes equal, so TR is 20.
	got := ATR(candlesFromCloses(100, 100, 100, 100))
	if math.Abs(got-20) > 1e-9 {
		t.Fatalf("expected 20, got %v", got)
	}
}

func TestADXNeutralWhenShort(t *testing.T) {
	got := ADX(candlesFromCloses(100, 101, 102), 7)
	if got != 25.0 {
		t.Fatalf("expected neutral 25, got %v", got)
	}
}

func TestADXStrongTrend(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)*50
	}
	got := ADX(candlesFromCloses(closes...), 7)
	if got < 25 {
		t.Fatalf("expected strong trend adx, got %v", got)
	}
	if got > 100 {
		t.Fatalf("adx out of bounds: %v", got)
	}
}

func TestMACDInsufficientData(t *testing.T) {
	line, signal, hist, delta := MACD(candlesFromCloses(100, 101, 102), 5, 10, 4)
	if line != 0 || signal != 0 || hist != 0 || delta != 0 {
		t.Fatalf("expected zeros, got %v %v %v %v", line, signal, hist, delta)
	}
}

func TestMACDRisingMarket(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)*5
	}
	line, _, _, _ := MACD(candlesFromCloses(closes...), 5, 10, 4)
	if line <= 0 {
		t.Fatalf("expected positive macd line in rising market, got %v", line)
	}
}

func TestVWAPFlatMarket(t *testing.T) {
	vwap, pos, slope := VWAP(candlesFromCloses(100, 100, 100, 100, 100, 100))
	if math.Abs(vwap-100) > 1e-9 {
		t.Fatalf("expected vwap 100, got %v", vwap)
	}
	if pos != 0 {
		t.Fatalf("expected zero distance, got %v", pos)
	}
	if slope != 0 {
		t.Fatalf("expected zero slope, got %v", slope)
	}
}

func TestVWAPSlopeClamped(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100 + float64(i)*30
	}
	_, _, slope := VWAP(candlesFromCloses(closes...))
	if slope < -1 || slope > 1 {
		t.Fatalf("slope out of bounds: %v", slope)
	}
	if slope != 1 {
		t.Fatalf("expected clamp to 1 in steep rise, got %v", slope)
	}
}

func TestBollingerPositionClamped(t *testing.T) {
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100
	}
	closes[13] = 250 // spike far beyond the upper band
	_, _, _, _, pos, _ := Bollinger(candlesFromCloses(closes...), 14, 2.0)
	if pos != 1 {
		t.Fatalf("expected position clamped to 1, got %v", pos)
	}
}

func TestBollingerInsufficientData(t *testing.T) {
	upper, middle, lower, bw, pos, squeeze := Bollinger(candlesFromCloses(100, 101), 14, 2.0)
	if upper != 101 || middle != 101 || lower != 101 {
		t.Fatalf("expected bands collapsed to last close, got %v %v %v", upper, middle, lower)
	}
	if bw != 0 || pos != 0.5 || squeeze {
		t.Fatalf("unexpected defaults: bw=%v pos=%v squeeze=%v", bw, pos, squeeze)
	}
}

func TestBollingerSqueeze(t *testing.T) {
	closes := make([]float64, 28)
	// Volatile first window, flat second window.
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			closes[i] = 120
		} else {
			closes[i] = 80
		}
	}
	for i := 14; i < 28; i++ {
		closes[i] = 100
	}
	_, _, _, _, _, squeeze := Bollinger(candlesFromCloses(closes...), 14, 2.0)
	if !squeeze {
		t.Fatalf("expected squeeze after volatility collapse")
	}
}

func TestDetectRegimeShortData(t *testing.T) {
	regime, adx := DetectRegime(candlesFromCloses(100, 101, 102))
	if regime != models.RegimeRange {
		t.Fatalf("expected RANGE, got %v", regime)
	}
	if adx != 25.0 {
		t.Fatalf("expected neutral adx, got %v", adx)
	}
}

func TestDetectRegimeTrendUp(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)*50
	}
	regime, adx := DetectRegime(candlesFromCloses(closes...))
	if regime != models.RegimeTrendUp {
		t.Fatalf("expected TREND_UP, got %v (adx=%v)", regime, adx)
	}
}

func TestDetectRegimeTrendDown(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 2000 - float64(i)*50
	}
	regime, _ := DetectRegime(candlesFromCloses(closes...))
	if regime != models.RegimeTrendDown {
		t.Fatalf("expected TREND_DOWN, got %v", regime)
	}
}

func TestAnalyzePatternInsufficient(t *testing.T) {
	res := AnalyzePattern(candlesFromCloses(100, 101))
	if res.Direction != models.DirectionNeutral {
		t.Fatalf("expected NEUTRAL, got %v", res.Direction)
	}
}

func TestAnalyzePatternUp(t *testing.T) {
	res := AnalyzePattern(candlesFromCloses(100, 101, 102, 103, 104, 105, 106))
	if res.Direction != models.DirectionUp {
		t.Fatalf("expected UP, got %v (score=%v)", res.Direction, res.Score)
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of bounds: %v", res.Confidence)
	}
}

func TestAnalyzePatternDown(t *testing.T) {
	res := AnalyzePattern(candlesFromCloses(106, 105, 104, 103, 102, 101, 100))
	if res.Direction != models.DirectionDown {
		t.Fatalf("expected DOWN, got %v (score=%v)", res.Direction, res.Score)
	}
}

func TestEngineSnapshotEmpty(t *testing.T) {
	snap := NewEngine(Params{}).Snapshot(nil)
	if snap.RSI != 50 || snap.ADX != 25 || snap.BBPosition != 0.5 {
		t.Fatalf("unexpected empty snapshot: %+v", snap)
	}
	if snap.Regime != models.RegimeRange {
		t.Fatalf("expected RANGE, got %v", snap.Regime)
	}
}

func TestEngineSnapshotPopulated(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)*5
	}
	snap := NewEngine(Params{}).Snapshot(candlesFromCloses(closes...))
	if snap.Price != closes[len(closes)-1] {
		t.Fatalf("expected price %v, got %v", closes[len(closes)-1], snap.Price)
	}
	if snap.RSI != 100 {
		t.Fatalf("expected rsi 100 in monotonic rise, got %v", snap.RSI)
	}
	if snap.TrendDirection != 1 {
		t.Fatalf("expected trend direction 1, got %v", snap.TrendDirection)
	}
}
