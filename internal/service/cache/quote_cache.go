package cache

import (
	"context"
	"fmt"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/internal/domain/repository"
)

const DefaultQuoteTTL = 500 * time.Millisecond

// QuoteCache wraps a QuoteSource with a short TTL so one evaluation
// cycle reuses quotes instead of hammering the order book endpoint.
// Failed fetches are never cached.
type QuoteCache struct {
	source repository.QuoteSource
	cache  *TTLCache
	ttl    time.Duration
}

func NewQuoteCache(source repository.QuoteSource, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{
		source: source,
		cache:  NewTTLCache(),
		ttl:    ttl,
	}
}

func quoteKey(tokenID string, side models.Side) string {
	return fmt.Sprintf("quote:%s:%s", tokenID, side)
}

func (q *QuoteCache) Quote(ctx context.Context, tokenID string, side models.Side) (*models.Quote, error) {
	key := quoteKey(tokenID, side)
	if v, ok := q.cache.Get(key); ok {
		if quote, ok2 := v.(*models.Quote); ok2 {
			return quote, nil
		}
	}

	quote, err := q.source.Quote(ctx, tokenID, side)
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	q.cache.Set(key, quote, q.ttl)
	return quote, nil
}

func (q *QuoteCache) LastTradePrice(ctx context.Context, tokenID string) (float64, error) {
	return q.source.LastTradePrice(ctx, tokenID)
}
