package signal

import "PolyRadar/internal/domain/models"

// DetectScenario names the dominant setup for the current cycle.
// Warning scenarios take priority over trade setups. Returns nil when
// nothing noteworthy is in play.
func DetectScenario(sig *models.SignalResult, snap *models.IndicatorSnapshot) *models.Scenario {
	if sig == nil || snap == nil {
		return nil
	}

	rsi := snap.RSI
	bbPos := snap.BBPosition
	vwapPos := snap.PriceVsVWAP
	histDelta := snap.MACDHistDelta
	hist := snap.MACDHist

	if sig.Phase == models.PhaseClosing {
		return &models.Scenario{Name: "CLOSING - DO NOT TRADE", Warning: true}
	}
	if sig.Regime == models.RegimeChop {
		return &models.Scenario{Name: "CHOP - AVOID TRADING", Warning: true}
	}
	if sig.Strength < 30 && sig.Direction != models.DirectionNeutral {
		return &models.Scenario{Name: "WEAK SIGNAL", Warning: true}
	}
	if rsi >= 45 && rsi <= 55 && abs(hist) < 0.1 {
		return &models.Scenario{Name: "NEUTRAL - NO MOMENTUM", Warning: true}
	}

	if rsi < 30 && bbPos < 0.15 && vwapPos > 0 && sig.Regime == models.RegimeTrendUp {
		return &models.Scenario{Name: "SUPPORT BOUNCE"}
	}
	if rsi > 70 && bbPos > 0.85 && vwapPos < 0 && sig.Regime == models.RegimeTrendDown {
		return &models.Scenario{Name: "RESISTANCE BOUNCE"}
	}

	if abs(histDelta) > 0.3 && snap.BBSqueeze && sig.HighVol && sig.Strength > 70 {
		return &models.Scenario{Name: "BREAKOUT MACD"}
	}

	div := sig.Components.Divergence
	trending := sig.Regime == models.RegimeTrendUp || sig.Regime == models.RegimeTrendDown
	if abs(div) > 0.3 && trending && sig.Strength >= 40 {
		if div > 0 {
			return &models.Scenario{Name: "DIVERGENCE UP"}
		}
		return &models.Scenario{Name: "DIVERGENCE DN"}
	}

	if rsi < 35 && bbPos < 0.25 && (sig.Regime == models.RegimeTrendUp || sig.Regime == models.RegimeRange) {
		return &models.Scenario{Name: "MODERATE SUPPORT"}
	}
	if rsi > 65 && bbPos > 0.75 && (sig.Regime == models.RegimeTrendDown || sig.Regime == models.RegimeRange) {
		return &models.Scenario{Name: "MODERATE RESISTANCE"}
	}
	if abs(histDelta) > 0.2 && sig.Strength > 50 {
		if histDelta > 0 {
			return &models.Scenario{Name: "MOMENTUM UP"}
		}
		return &models.Scenario{Name: "MOMENTUM DN"}
	}

	return nil
}
