package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PolyRadar/internal/domain/models"
)

func TestParseKlines(t *testing.T) {
	raw := []byte(`[[1700000000000,"65000.1","65100.2","64900.3","65050.4","12.5",1700000059999,"0",10,"0","0","0"]]`)
	candles, err := parseKlines(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	c := candles[0]
	if c.OpenTime != 1700000000000 {
		t.Fatalf("unexpected open time %d", c.OpenTime)
	}
	if c.Open != 65000.1 || c.High != 65100.2 || c.Low != 64900.3 || c.Close != 65050.4 || c.Volume != 12.5 {
		t.Fatalf("unexpected candle %+v", c)
	}
}

func TestParseKlinesMalformed(t *testing.T) {
	if _, err := parseKlines([]byte(`[[1700000000000,"bad"]]`)); err == nil {
		t.Fatalf("expected error for short row")
	}
	if _, err := parseKlines([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for bad json")
	}
}

func TestRESTClientPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ticker/price" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Fatalf("unexpected symbol %s", got)
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"65123.45"}`))
	}))
	defer srv.Close()

	c := NewRESTClient("BTCUSDT", WithBaseURL(srv.URL))
	price, err := c.Price(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 65123.45 {
		t.Fatalf("unexpected price %v", price)
	}
}

func TestRESTClientKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Fatalf("unexpected limit %s", got)
		}
		w.Write([]byte(`[
			[1700000000000,"100","110","90","105","1",0,"0",0,"0","0","0"],
			[1700000060000,"105","115","95","110","2",0,"0",0,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewRESTClient("BTCUSDT", WithBaseURL(srv.URL))
	candles, err := c.Klines(context.Background(), "1m", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 || candles[1].Close != 110 {
		t.Fatalf("unexpected candles %+v", candles)
	}
}

func TestCandleBufferSeedAndApply(t *testing.T) {
	b := NewCandleBuffer(3)
	b.Seed([]models.Candle{
		{OpenTime: 1, Close: 100},
		{OpenTime: 2, Close: 101},
		{OpenTime: 3, Close: 102},
	})
	// Two completed plus the forming candle.
	if b.Len() != 3 {
		t.Fatalf("expected len 3, got %d", b.Len())
	}
	snap := b.Snapshot(0)
	if snap[len(snap)-1].OpenTime != 3 {
		t.Fatalf("expected forming candle last, got %+v", snap)
	}

	// Close the forming candle, then open a new one.
	b.Apply(models.Candle{OpenTime: 3, Close: 103}, true)
	b.Apply(models.Candle{OpenTime: 4, Close: 104}, false)
	snap = b.Snapshot(0)
	if snap[len(snap)-1].OpenTime != 4 {
		t.Fatalf("expected new forming candle, got %+v", snap)
	}
}

func TestCandleBufferEviction(t *testing.T) {
	b := NewCandleBuffer(3)
	for i := 0; i < 6; i++ {
		b.Apply(models.Candle{OpenTime: int64(i)}, true)
	}
	snap := b.Snapshot(0)
	if len(snap) != 3 {
		t.Fatalf("expected capacity 3, got %d", len(snap))
	}
	if snap[0].OpenTime != 3 {
		t.Fatalf("expected oldest evicted, got %+v", snap)
	}
}

func TestCandleBufferSnapshotLimit(t *testing.T) {
	b := NewCandleBuffer(10)
	for i := 0; i < 8; i++ {
		b.Apply(models.Candle{OpenTime: int64(i)}, true)
	}
	snap := b.Snapshot(3)
	if len(snap) != 3 || snap[0].OpenTime != 5 {
		t.Fatalf("expected last 3 candles, got %+v", snap)
	}
}

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{4, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, c := range cases {
		if got := backoffDelay(c.failures); got != c.want {
			t.Fatalf("backoffDelay(%d) = %v, want %v", c.failures, got, c.want)
		}
	}
}

func TestStreamURLRotation(t *testing.T) {
	f := NewStreamFeed("BTCUSDT", "1m", nil, nil)
	first := f.streamURL()
	f.endpointIdx++
	second := f.streamURL()
	if first == second {
		t.Fatalf("expected endpoint rotation, got %s twice", first)
	}
	f.endpointIdx++
	if got := f.streamURL(); got != first {
		t.Fatalf("expected round-robin back to %s, got %s", first, got)
	}
}
