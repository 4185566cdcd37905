package usecase

import (
	"sync"
	"time"
)

// SessionStats aggregates closed-trade outcomes.
type SessionStats struct {
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	PnL          float64
	Best         float64
	Worst        float64
	GrossWins    float64
	GrossLosses  float64
	ProfitFactor float64
	MaxDrawdown  float64
	Duration     time.Duration
}

// Session tracks realized P&L across one radar run.
type Session struct {
	mu      sync.Mutex
	started time.Time
	history []float64
	pnl     float64
}

func NewSession() *Session {
	return &Session{started: time.Now()}
}

// Record books one closed trade and returns the running session P&L.
func (s *Session) Record(pnl float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, pnl)
	s.pnl += pnl
	return s.pnl
}

func (s *Session) PnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pnl
}

func (s *Session) TradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Stats computes the summary over all recorded trades.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := SessionStats{
		Trades:   len(s.history),
		PnL:      s.pnl,
		Duration: time.Since(s.started),
	}
	if len(s.history) == 0 {
		return stats
	}

	stats.Best = s.history[0]
	stats.Worst = s.history[0]
	var peak, cumul float64
	for _, t := range s.history {
		if t > 0 {
			stats.Wins++
			stats.GrossWins += t
		} else {
			stats.Losses++
			stats.GrossLosses += -t
		}
		if t > stats.Best {
			stats.Best = t
		}
		if t < stats.Worst {
			stats.Worst = t
		}
		cumul += t
		if cumul > peak {
			peak = cumul
		}
		if dd := peak - cumul; dd > stats.MaxDrawdown {
			stats.MaxDrawdown = dd
		}
	}
	stats.WinRate = float64(stats.Wins) / float64(len(s.history)) * 100
	if stats.GrossLosses > 0 {
		stats.ProfitFactor = stats.GrossWins / stats.GrossLosses
	} else {
		stats.ProfitFactor = stats.GrossWins
	}
	return stats
}
