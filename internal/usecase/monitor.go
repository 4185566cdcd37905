package usecase

import (
	"context"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/internal/domain/repository"
	"PolyRadar/pkg/logger"
)

const (
	DefaultMonitorTimeout  = 10 * time.Minute
	monitorCancelPoll      = 100 * time.Millisecond
	monitorCancelPollCount = 5
)

// PositionMonitor polls a token price until take-profit, stop-loss,
// cancellation or timeout. Cancellation is answered within one poll
// tick even while a price fetch is in flight.
type PositionMonitor struct {
	quotes  repository.QuoteSource
	metrics repository.Metrics
	log     *logger.Logger
	timeout time.Duration
}

type MonitorOption func(*PositionMonitor)

func WithMonitorTimeout(d time.Duration) MonitorOption {
	return func(m *PositionMonitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewPositionMonitor(quotes repository.QuoteSource, metrics repository.Metrics, log *logger.Logger, opts ...MonitorOption) *PositionMonitor {
	m := &PositionMonitor{
		quotes:  quotes,
		metrics: metrics,
		log:     log,
		timeout: DefaultMonitorTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run watches the position until one exit condition fires. The cancel
// channel requests a manual exit.
func (m *PositionMonitor) Run(ctx context.Context, pos *models.Position, cancel <-chan struct{}) (*models.MonitorResult, error) {
	start := time.Now()
	tpAbove := pos.TakeProfit > pos.EntryPrice
	slAbove := pos.StopLoss > pos.EntryPrice

	m.log.Info("monitoring position",
		logger.String("token", pos.TokenID),
		logger.Float64("entry", pos.EntryPrice),
		logger.Float64("tp", pos.TakeProfit),
		logger.Float64("sl", pos.StopLoss))

	var lastPrice float64
	for {
		if time.Since(start) > m.timeout {
			return m.finish(ctx, pos, models.ResolutionTimeout, lastPrice, start)
		}

		priceCh := make(chan float64, 1)
		go func() {
			price, err := m.quotes.Quote(ctx, pos.TokenID, models.SideBuy)
			if err != nil {
				m.metrics.RecordError("monitor_quote")
				priceCh <- 0
				return
			}
			priceCh <- price.Price
		}()

		// Poll for cancellation while the fetch runs.
		for i := 0; i < monitorCancelPollCount; i++ {
			select {
			case <-ctx.Done():
				return m.finish(ctx, pos, models.ResolutionCancel, lastPrice, start)
			case <-cancel:
				return m.finish(ctx, pos, models.ResolutionCancel, lastPrice, start)
			case <-time.After(monitorCancelPoll):
			}
		}

		price := <-priceCh
		if price <= 0 {
			continue
		}
		lastPrice = price
		m.metrics.RecordQuote(string(models.SideBuy), price)

		if tpAbove && price >= pos.TakeProfit {
			return m.result(models.ResolutionTakeProfit, price, start), nil
		}
		if !tpAbove && price <= pos.TakeProfit {
			return m.result(models.ResolutionTakeProfit, price, start), nil
		}
		if !slAbove && price <= pos.StopLoss {
			return m.result(models.ResolutionStopLoss, price, start), nil
		}
		if slAbove && price >= pos.StopLoss {
			return m.result(models.ResolutionStopLoss, price, start), nil
		}
	}
}

// finish resolves the exit price for cancel and timeout paths. Falls
// back to one direct fetch when no price was seen yet.
func (m *PositionMonitor) finish(ctx context.Context, pos *models.Position, res models.Resolution, lastPrice float64, start time.Time) (*models.MonitorResult, error) {
	price := lastPrice
	if price <= 0 {
		if quote, err := m.quotes.Quote(ctx, pos.TokenID, models.SideBuy); err == nil {
			price = quote.Price
		}
	}
	return m.result(res, price, start), nil
}

func (m *PositionMonitor) result(res models.Resolution, price float64, start time.Time) *models.MonitorResult {
	m.metrics.RecordResolution(string(res))
	m.log.Info("position resolved",
		logger.String("resolution", string(res)),
		logger.Float64("exit_price", price))
	return &models.MonitorResult{
		Resolution: res,
		ExitPrice:  price,
		Elapsed:    time.Since(start),
	}
}
