package binance

import (
	"sync"
	"time"

	"PolyRadar/internal/domain/models"
)

const DefaultBufferSize = 30

// CandleBuffer holds completed candles plus the candle still forming.
// Safe for concurrent use by the websocket read loop and the polling
// cycle.
type CandleBuffer struct {
	mu         sync.RWMutex
	completed  []models.Candle
	forming    *models.Candle
	capacity   int
	lastUpdate time.Time
}

func NewCandleBuffer(capacity int) *CandleBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &CandleBuffer{
		completed: make([]models.Candle, 0, capacity),
		capacity:  capacity,
	}
}

// Seed loads an initial candle window. The last candle is treated as
// still forming.
func (b *CandleBuffer) Seed(candles []models.Candle) {
	if len(candles) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	completed := candles[:len(candles)-1]
	if len(completed) > b.capacity {
		completed = completed[len(completed)-b.capacity:]
	}
	b.completed = append(b.completed[:0], completed...)
	forming := candles[len(candles)-1]
	b.forming = &forming
	b.lastUpdate = time.Now()
}

// Apply merges one stream update. Closed candles move to the
// completed window, open ones replace the forming candle.
func (b *CandleBuffer) Apply(c models.Candle, closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if closed {
		b.completed = append(b.completed, c)
		if len(b.completed) > b.capacity {
			b.completed = b.completed[len(b.completed)-b.capacity:]
		}
		b.forming = nil
	} else {
		forming := c
		b.forming = &forming
	}
	b.lastUpdate = time.Now()
}

// Snapshot returns up to limit candles, oldest first, with the
// forming candle last.
func (b *CandleBuffer) Snapshot(limit int) []models.Candle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Candle, 0, len(b.completed)+1)
	out = append(out, b.completed...)
	if b.forming != nil {
		out = append(out, *b.forming)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (b *CandleBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.completed)
	if b.forming != nil {
		n++
	}
	return n
}

func (b *CandleBuffer) LastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate
}
