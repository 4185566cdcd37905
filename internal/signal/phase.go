package signal

import (
	"time"

	"PolyRadar/internal/domain/models"
)

// PhaseFor maps the remaining window time to a market phase. The
// thresholds are proportional to the window length so the same engine
// works on 15 and 60 minute markets.
func PhaseFor(remaining, window time.Duration) models.Phase {
	if window <= 0 {
		return models.PhaseClosing
	}
	pct := float64(remaining) / float64(window)
	switch {
	case pct > 0.66:
		return models.PhaseEarly
	case pct > 0.33:
		return models.PhaseMid
	case pct > 0.06:
		return models.PhaseLate
	default:
		return models.PhaseClosing
	}
}
