package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, int)      {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordSpotPrice(string, float64) {}
func (nopMetrics) RecordQuote(string, float64)   {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordResolution(string)       {}

// scriptedQuotes returns prices in sequence, repeating the last one.
type scriptedQuotes struct {
	mu     sync.Mutex
	prices []float64
	calls  int
}

func (s *scriptedQuotes) Quote(_ context.Context, tokenID string, _ models.Side) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.prices) {
		idx = len(s.prices) - 1
	}
	s.calls++
	return &models.Quote{TokenID: tokenID, Price: s.prices[idx]}, nil
}

func (s *scriptedQuotes) LastTradePrice(context.Context, string) (float64, error) {
	return 0, nil
}

func TestMonitorTakeProfit(t *testing.T) {
	quotes := &scriptedQuotes{prices: []float64{0.55, 0.61}}
	m := NewPositionMonitor(quotes, nopMetrics{}, testLogger(t))

	pos := &models.Position{
		TokenID:    "tok",
		EntryPrice: 0.50,
		TakeProfit: 0.60,
		StopLoss:   0.44,
		Shares:     10,
	}
	res, err := m.Run(context.Background(), pos, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Resolution != models.ResolutionTakeProfit {
		t.Fatalf("resolution = %s, want TP", res.Resolution)
	}
	if res.ExitPrice != 0.61 {
		t.Fatalf("exit price = %v, want 0.61", res.ExitPrice)
	}
}

func TestMonitorStopLoss(t *testing.T) {
	quotes := &scriptedQuotes{prices: []float64{0.48, 0.40}}
	m := NewPositionMonitor(quotes, nopMetrics{}, testLogger(t))

	pos := &models.Position{
		TokenID:    "tok",
		EntryPrice: 0.50,
		TakeProfit: 0.60,
		StopLoss:   0.44,
	}
	res, err := m.Run(context.Background(), pos, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Resolution != models.ResolutionStopLoss {
		t.Fatalf("resolution = %s, want SL", res.Resolution)
	}
	if res.ExitPrice != 0.40 {
		t.Fatalf("exit price = %v, want 0.40", res.ExitPrice)
	}
}

func TestMonitorShortPositionInvertsLevels(t *testing.T) {
	// A DOWN position has its take-profit below entry and stop above.
	quotes := &scriptedQuotes{prices: []float64{0.45, 0.38}}
	m := NewPositionMonitor(quotes, nopMetrics{}, testLogger(t))

	pos := &models.Position{
		TokenID:    "tok",
		EntryPrice: 0.50,
		TakeProfit: 0.40,
		StopLoss:   0.58,
	}
	res, err := m.Run(context.Background(), pos, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Resolution != models.ResolutionTakeProfit {
		t.Fatalf("resolution = %s, want TP", res.Resolution)
	}
}

func TestMonitorTimeout(t *testing.T) {
	quotes := &scriptedQuotes{prices: []float64{0.52}}
	m := NewPositionMonitor(quotes, nopMetrics{}, testLogger(t), WithMonitorTimeout(time.Millisecond))

	pos := &models.Position{
		TokenID:    "tok",
		EntryPrice: 0.50,
		TakeProfit: 0.60,
		StopLoss:   0.44,
	}
	time.Sleep(2 * time.Millisecond)
	res, err := m.Run(context.Background(), pos, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Resolution != models.ResolutionTimeout {
		t.Fatalf("resolution = %s, want TIMEOUT", res.Resolution)
	}
	// No price seen before timing out, so the exit falls back to one
	// direct fetch.
	if res.ExitPrice != 0.52 {
		t.Fatalf("exit price = %v, want fallback 0.52", res.ExitPrice)
	}
}

func TestMonitorCancelRespondsQuickly(t *testing.T) {
	quotes := &scriptedQuotes{prices: []float64{0.52}}
	m := NewPositionMonitor(quotes, nopMetrics{}, testLogger(t))

	cancel := make(chan struct{})
	close(cancel)

	pos := &models.Position{
		TokenID:    "tok",
		EntryPrice: 0.50,
		TakeProfit: 0.60,
		StopLoss:   0.44,
	}
	start := time.Now()
	res, err := m.Run(context.Background(), pos, cancel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Resolution != models.ResolutionCancel {
		t.Fatalf("resolution = %s, want CANCEL", res.Resolution)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancel took %v, want under a second", elapsed)
	}
}

func TestSessionStats(t *testing.T) {
	s := NewSession()
	for _, pnl := range []float64{2.0, -1.0, 3.0, -0.5} {
		s.Record(pnl)
	}

	stats := s.Stats()
	if stats.Trades != 4 {
		t.Fatalf("trades = %d, want 4", stats.Trades)
	}
	if stats.Wins != 2 || stats.Losses != 2 {
		t.Fatalf("wins/losses = %d/%d, want 2/2", stats.Wins, stats.Losses)
	}
	if stats.PnL != 3.5 {
		t.Fatalf("pnl = %v, want 3.5", stats.PnL)
	}
	if stats.WinRate != 50 {
		t.Fatalf("win rate = %v, want 50", stats.WinRate)
	}
	if stats.Best != 3.0 || stats.Worst != -1.0 {
		t.Fatalf("best/worst = %v/%v, want 3/-1", stats.Best, stats.Worst)
	}
	// gross wins 5.0 over gross losses 1.5
	want := 5.0 / 1.5
	if diff := stats.ProfitFactor - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("profit factor = %v, want %v", stats.ProfitFactor, want)
	}
	// cumulative path 2, 1, 4, 3.5 so the deepest dip from a peak is 1.
	if stats.MaxDrawdown != 1.0 {
		t.Fatalf("max drawdown = %v, want 1", stats.MaxDrawdown)
	}
}

func TestSessionProfitFactorNoLosses(t *testing.T) {
	s := NewSession()
	s.Record(1.0)
	s.Record(2.0)

	stats := s.Stats()
	if stats.ProfitFactor != 3.0 {
		t.Fatalf("profit factor = %v, want gross wins 3", stats.ProfitFactor)
	}
	if stats.MaxDrawdown != 0 {
		t.Fatalf("max drawdown = %v, want 0", stats.MaxDrawdown)
	}
}

func TestSessionRecordReturnsRunningTotal(t *testing.T) {
	s := NewSession()
	if got := s.Record(1.5); got != 1.5 {
		t.Fatalf("running total = %v, want 1.5", got)
	}
	if got := s.Record(-0.5); got != 1.0 {
		t.Fatalf("running total = %v, want 1.0", got)
	}
	if s.TradeCount() != 2 {
		t.Fatalf("trade count = %d, want 2", s.TradeCount())
	}
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{4, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := backoff(2*time.Second, tc.failures, 30*time.Second); got != tc.want {
			t.Fatalf("backoff(%d) = %v, want %v", tc.failures, got, tc.want)
		}
	}
}
