package trader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"PolyRadar/internal/domain/models"
	"PolyRadar/pkg/logger"
)

// DryRun simulates order placement. Every order fills immediately at
// the requested price, so the engine's bookkeeping can run end to end
// without touching the exchange.
type DryRun struct {
	log *logger.Logger

	seq    atomic.Int64
	mu     sync.Mutex
	orders map[string]models.OrderStatus
}

func NewDryRun(log *logger.Logger) *DryRun {
	return &DryRun{
		log:    log,
		orders: make(map[string]models.OrderStatus),
	}
}

func (d *DryRun) Buy(_ context.Context, tokenID string, price, shares float64) (string, error) {
	return d.place("BUY", tokenID, price, shares)
}

func (d *DryRun) Sell(_ context.Context, tokenID string, price, shares float64) (string, error) {
	return d.place("SELL", tokenID, price, shares)
}

func (d *DryRun) place(side, tokenID string, price, shares float64) (string, error) {
	if price <= 0 || shares <= 0 {
		return "", fmt.Errorf("dry run %s: invalid order price=%v shares=%v", side, price, shares)
	}
	id := fmt.Sprintf("dry-%d", d.seq.Add(1))
	d.mu.Lock()
	d.orders[id] = models.OrderFilled
	d.mu.Unlock()
	d.log.Info("dry run order filled",
		logger.String("order_id", id),
		logger.String("side", side),
		logger.String("token", tokenID),
		logger.Float64("price", price),
		logger.Float64("shares", shares))
	return id, nil
}

func (d *DryRun) OrderStatus(_ context.Context, orderID string) (models.OrderStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	status, ok := d.orders[orderID]
	if !ok {
		return "", fmt.Errorf("dry run: unknown order %s", orderID)
	}
	return status, nil
}

func (d *DryRun) Cancel(_ context.Context, orderID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.orders[orderID]; !ok {
		return fmt.Errorf("dry run: unknown order %s", orderID)
	}
	d.orders[orderID] = models.OrderCancelled
	return nil
}
