package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"PolyRadar/internal/domain/models"
)

type stubQuoteSource struct {
	calls int
	fail  bool
	price float64
}

func (s *stubQuoteSource) Quote(_ context.Context, tokenID string, side models.Side) (*models.Quote, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("orderbook unavailable")
	}
	return &models.Quote{TokenID: tokenID, Side: side, Price: s.price, FetchedAt: time.Now()}, nil
}

func (s *stubQuoteSource) LastTradePrice(context.Context, string) (float64, error) {
	return s.price, nil
}

func TestQuoteCacheHit(t *testing.T) {
	src := &stubQuoteSource{price: 0.52}
	qc := NewQuoteCache(src, time.Minute)

	q1, err := qc.Quote(context.Background(), "tok", models.SideBuy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q2, err := qc.Quote(context.Background(), "tok", models.SideBuy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", src.calls)
	}
	if q1.Price != q2.Price {
		t.Fatalf("expected cached quote, got %v vs %v", q1.Price, q2.Price)
	}
}

func TestQuoteCacheSidesAreDistinct(t *testing.T) {
	src := &stubQuoteSource{price: 0.52}
	qc := NewQuoteCache(src, time.Minute)

	if _, err := qc.Quote(context.Background(), "tok", models.SideBuy); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := qc.Quote(context.Background(), "tok", models.SideSell); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 upstream calls for distinct sides, got %d", src.calls)
	}
}

func TestQuoteCacheExpiry(t *testing.T) {
	src := &stubQuoteSource{price: 0.52}
	qc := NewQuoteCache(src, 10*time.Millisecond)

	if _, err := qc.Quote(context.Background(), "tok", models.SideBuy); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := qc.Quote(context.Background(), "tok", models.SideBuy); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", src.calls)
	}
}

func TestQuoteCacheNeverCachesFailures(t *testing.T) {
	src := &stubQuoteSource{fail: true}
	qc := NewQuoteCache(src, time.Minute)

	if _, err := qc.Quote(context.Background(), "tok", models.SideBuy); err == nil {
		t.Fatalf("expected error")
	}
	src.fail = false
	src.price = 0.60
	q, err := qc.Quote(context.Background(), "tok", models.SideBuy)
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if q.Price != 0.60 {
		t.Fatalf("expected fresh quote after failed fetch, got %v", q.Price)
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", src.calls)
	}
}
