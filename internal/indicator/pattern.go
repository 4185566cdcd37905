package indicator

import "PolyRadar/internal/domain/models"

// PatternResult is the outcome of scoring recent candle structure.
type PatternResult struct {
	Direction   models.Direction
	Confidence  float64
	Score       float64
	TotalChange float64
	Momentum    float64
	Greens      int
	VolUpPct    float64
}

// AnalyzePattern scores the last candles by total change, short-term
// momentum, candle color and volume balance. Weights are 0.35, 0.35,
// 0.15 and 0.15 with a neutral zone of +-0.10 on the combined score.
func AnalyzePattern(candles []models.Candle) PatternResult {
	if len(candles) < 5 {
		return PatternResult{Direction: models.DirectionNeutral}
	}

	current := candles[len(candles)-1].Close
	start := candles[0].Open
	totalChange := (current - start) / start * 100

	recent := closes(candles[len(candles)-3:])
	var previous []float64
	if len(candles) >= 6 {
		previous = closes(candles[len(candles)-6 : len(candles)-3])
	} else {
		previous = closes(candles[:3])
	}
	avgRecent := mean(recent)
	avgPrevious := mean(previous)
	momentum := (avgRecent - avgPrevious) / avgPrevious * 100

	last5 := candles[len(candles)-5:]
	greens := 0
	var volUp, volDown float64
	for _, c := range last5 {
		if c.Green() {
			greens++
			volUp += c.Volume
		} else {
			volDown += c.Volume
		}
	}
	volTotal := volUp + volDown

	score := 0.0
	score += thresholdScore(totalChange, 0.02, 0.01, 0.35, 0.20)
	score += thresholdScore(momentum, 0.02, 0.01, 0.35, 0.20)

	switch {
	case greens >= 4:
		score += 0.15
	case greens <= 1:
		score -= 0.15
	case greens >= 3:
		score += 0.07
	default: // greens == 2
		score -= 0.07
	}

	volUpPct := 50.0
	if volTotal > 0 {
		ratio := volUp / volTotal
		volUpPct = ratio * 100
		switch {
		case ratio > 0.65:
			score += 0.15
		case ratio < 0.35:
			score -= 0.15
		case ratio > 0.55:
			score += 0.07
		case ratio < 0.45:
			score -= 0.07
		}
	}

	res := PatternResult{
		Score:       score,
		TotalChange: totalChange,
		Momentum:    momentum,
		Greens:      greens,
		VolUpPct:    volUpPct,
	}
	switch {
	case score > 0.10:
		res.Direction = models.DirectionUp
		res.Confidence = clamp(abs(score), 0, 1)
	case score < -0.10:
		res.Direction = models.DirectionDown
		res.Confidence = clamp(abs(score), 0, 1)
	default:
		res.Direction = models.DirectionNeutral
		res.Confidence = abs(score)
	}
	return res
}

func thresholdScore(v, strong, weak, strongW, weakW float64) float64 {
	sign := 1.0
	if v < 0 {
		sign = -1.0
	}
	switch {
	case abs(v) > strong:
		return strongW * sign
	case abs(v) > weak:
		return weakW * sign
	default:
		return 0
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
