package indicator

import "PolyRadar/internal/domain/models"

// DetectRegime classifies market structure from ADX, price versus a
// 10-period SMA, Bollinger bandwidth and candle consistency over the
// last 7 candles. Returns the regime and the ADX value it used.
func DetectRegime(candles []models.Candle) (models.Regime, float64) {
	if len(candles) < 14 {
		return models.RegimeRange, neutralADX
	}

	adx := ADX(candles, DefaultADXPeriod)
	_, _, _, bandwidth, _, _ := Bollinger(candles, DefaultBBPeriod, DefaultBBStd)

	sma := mean(closes(candles[len(candles)-10:]))
	priceAboveSMA := candles[len(candles)-1].Close > sma

	greens := 0
	for _, c := range candles[len(candles)-7:] {
		if c.Green() {
			greens++
		}
	}

	switch {
	case adx >= 25:
		if priceAboveSMA && greens >= 4 {
			return models.RegimeTrendUp, adx
		}
		if !priceAboveSMA && greens <= 3 {
			return models.RegimeTrendDown, adx
		}
		// High ADX but mixed candles.
		return models.RegimeRange, adx
	case adx < 18:
		if bandwidth > 0.15 {
			return models.RegimeChop, adx
		}
		return models.RegimeRange, adx
	default:
		return models.RegimeRange, adx
	}
}
