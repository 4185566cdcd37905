package models

import "time"

// Candle represents a fixed-interval OHLCV price bar.
// Completed candles are immutable once buffered; only the forming candle
// for the still-open interval is ever replaced.
type Candle struct {
	OpenTime int64   `json:"open_time"` // unix ms
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Green reports whether the candle closed above its open.
func (c Candle) Green() bool { return c.Close > c.Open }

// CandleSource indicates where a candle snapshot came from.
type CandleSource string

const (
	SourceStream   CandleSource = "stream"
	SourceFallback CandleSource = "fallback"
)

// Side is a prediction-market quote side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Quote is a single prediction-market price observation.
type Quote struct {
	TokenID   string    `json:"token_id"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Market describes the active updown market window.
type Market struct {
	Slug          string        `json:"slug"`
	TokenUp       string        `json:"token_up"`
	TokenDown     string        `json:"token_down"`
	WindowStart   time.Time     `json:"window_start"`
	Window        time.Duration `json:"window"`
	TimeRemaining time.Duration `json:"time_remaining"`
	PriceToBeat   float64       `json:"price_to_beat"`
}

// Position is an open position as tracked by the caller; the monitor only
// reads target prices and reports resolution.
type Position struct {
	TokenID    string    `json:"token_id"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	Shares     float64   `json:"shares"`
	TakeProfit float64   `json:"take_profit"`
	StopLoss   float64   `json:"stop_loss"`
	OpenedAt   time.Time `json:"opened_at"`
}

// HistoryEntry is one rolling-history sample of spot price and market quotes.
type HistoryEntry struct {
	Timestamp time.Time `json:"ts"`
	Spot      float64   `json:"spot"`
	Up        float64   `json:"up"`
	Down      float64   `json:"down"`
}
