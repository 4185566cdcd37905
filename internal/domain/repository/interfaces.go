package repository

import (
	"context"
	"time"

	"PolyRadar/internal/domain/models"
)

// CandleFeed delivers one-minute candles for the tracked symbol. The
// streaming implementation keeps a rolling buffer fed by a websocket;
// the REST implementation fetches on demand.
type CandleFeed interface {
	Start(ctx context.Context) error
	Candles(ctx context.Context, limit int) ([]models.Candle, models.CandleSource, error)
	SpotPrice(ctx context.Context) (float64, error)
	Healthy() bool
	Close() error
}

// QuoteSource fetches order book quotes for outcome tokens.
type QuoteSource interface {
	Quote(ctx context.Context, tokenID string, side models.Side) (*models.Quote, error)
	LastTradePrice(ctx context.Context, tokenID string) (float64, error)
}

// MarketDirectory discovers the currently active market window for an
// asset and resolves its outcome tokens.
type MarketDirectory interface {
	CurrentMarket(ctx context.Context, asset string, window time.Duration) (*models.Market, error)
}

// Trader places and manages orders against the exchange. The engine
// only ever talks to this interface so a dry-run stub can stand in.
type Trader interface {
	Buy(ctx context.Context, tokenID string, price, shares float64) (orderID string, err error)
	Sell(ctx context.Context, tokenID string, price, shares float64) (orderID string, err error)
	OrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
	Cancel(ctx context.Context, orderID string) error
}

// SignalSink records evaluated signals and trade events for later
// analysis.
type SignalSink interface {
	RecordSignal(ctx context.Context, sig *models.SignalResult) error
	RecordTrade(ctx context.Context, ev *models.TradeEvent) error
	Close() error
}

// SignalPublisher fans evaluated signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, sig *models.SignalResult) error
	Close() error
}

// SnapshotStore shares the latest signal snapshot across processes.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sig *models.SignalResult) error
	LoadSnapshot(ctx context.Context) (*models.SignalResult, error)
}

// Metrics is the recording surface the engine emits into.
type Metrics interface {
	RecordSignal(direction string, strength int)
	RecordError(kind string)
	RecordSpotPrice(symbol string, price float64)
	RecordQuote(side string, price float64)
	RecordLatency(op string, seconds float64)
	RecordResolution(kind string)
}
