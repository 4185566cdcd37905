package usecase

import (
	"context"
	"fmt"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/internal/domain/repository"
	"PolyRadar/pkg/logger"
)

const (
	maxTakeProfit = 0.95
	minStopLoss   = 0.03
)

// PositionTracker mirrors open positions somewhere visible, usually
// the radar's state so the API can report them.
type PositionTracker interface {
	TrackPosition(pos models.Position)
	ClearPositions()
}

// Executor turns an actionable signal into a monitored position: buy,
// watch until take-profit, stop-loss, cancel or timeout, then sell and
// book the result into the session.
type Executor struct {
	trader  repository.Trader
	quotes  repository.QuoteSource
	monitor *PositionMonitor
	session *Session
	tracker PositionTracker
	sink    repository.SignalSink
	log     *logger.Logger
}

func NewExecutor(trader repository.Trader, quotes repository.QuoteSource, monitor *PositionMonitor, session *Session, tracker PositionTracker, sink repository.SignalSink, log *logger.Logger) *Executor {
	return &Executor{
		trader:  trader,
		quotes:  quotes,
		monitor: monitor,
		session: session,
		tracker: tracker,
		sink:    sink,
		log:     log,
	}
}

// Execute opens a position sized in shares for an actionable signal
// and blocks until it resolves. The suggestion's take-profit and
// stop-loss distances are carried onto the real fill price.
func (e *Executor) Execute(ctx context.Context, sig *models.SignalResult, market *models.Market, shares float64, cancel <-chan struct{}) (*models.MonitorResult, error) {
	if sig == nil || sig.Suggestion == nil {
		return nil, fmt.Errorf("execute: no trade suggestion")
	}
	if !sig.Actionable() {
		return nil, fmt.Errorf("execute: signal not actionable in phase %s", sig.Phase)
	}

	tokenID := market.TokenUp
	if sig.Direction == models.DirectionDown {
		tokenID = market.TokenDown
	}

	quote, err := e.quotes.Quote(ctx, tokenID, models.SideBuy)
	if err != nil {
		return nil, fmt.Errorf("execute: entry quote: %w", err)
	}
	entry := quote.Price

	orderID, err := e.trader.Buy(ctx, tokenID, entry, shares)
	if err != nil {
		return nil, fmt.Errorf("execute: buy: %w", err)
	}

	sug := sig.Suggestion
	tp := entry + (sug.TakeProfit - sug.Entry)
	if tp > maxTakeProfit {
		tp = maxTakeProfit
	}
	sl := entry - (sug.Entry - sug.StopLoss)
	if sl < minStopLoss {
		sl = minStopLoss
	}

	pos := &models.Position{
		TokenID:    tokenID,
		Direction:  sig.Direction,
		EntryPrice: entry,
		Shares:     shares,
		TakeProfit: tp,
		StopLoss:   sl,
		OpenedAt:   time.Now(),
	}

	if e.tracker != nil {
		e.tracker.TrackPosition(*pos)
	}

	reason := "signal"
	if sig.Scenario != nil {
		reason = sig.Scenario.Name
	}
	e.recordTrade(ctx, &models.TradeEvent{
		Timestamp: pos.OpenedAt,
		Action:    "OPEN",
		Direction: pos.Direction,
		Shares:    shares,
		Price:     entry,
		Reason:    reason,
	})

	e.log.Info("position opened",
		logger.String("order_id", orderID),
		logger.String("direction", string(pos.Direction)),
		logger.Float64("entry", entry),
		logger.Float64("tp", tp),
		logger.Float64("sl", sl))

	res, err := e.monitor.Run(ctx, pos, cancel)
	if err != nil {
		return nil, fmt.Errorf("execute: monitor: %w", err)
	}
	if e.tracker != nil {
		e.tracker.ClearPositions()
	}

	if _, err := e.trader.Sell(ctx, tokenID, res.ExitPrice, shares); err != nil {
		e.log.Error("exit sell failed", logger.Error(err))
	}

	pnl := (res.ExitPrice - entry) * shares
	sessionPL := e.session.Record(pnl)

	e.recordTrade(ctx, &models.TradeEvent{
		Timestamp: time.Now(),
		Action:    "CLOSE",
		Direction: pos.Direction,
		Shares:    shares,
		Price:     res.ExitPrice,
		Reason:    string(res.Resolution),
		PnL:       pnl,
		SessionPL: sessionPL,
	})

	e.log.Info("position closed",
		logger.String("resolution", string(res.Resolution)),
		logger.Float64("exit", res.ExitPrice),
		logger.Float64("pnl", pnl),
		logger.Float64("session_pnl", sessionPL))
	return res, nil
}

func (e *Executor) recordTrade(ctx context.Context, ev *models.TradeEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.RecordTrade(ctx, ev); err != nil {
		e.log.Warn("trade record failed", logger.Error(err))
	}
}
