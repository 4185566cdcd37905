package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PolyRadar/internal/domain/models"
)

func TestCLOBQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("side"); got != "BUY" {
			t.Fatalf("unexpected side %s", got)
		}
		w.Write([]byte(`{"price":"0.52"}`))
	}))
	defer srv.Close()

	c := NewCLOBClient(WithCLOBURL(srv.URL))
	q, err := c.Quote(context.Background(), "token123", models.SideBuy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != 0.52 {
		t.Fatalf("unexpected price %v", q.Price)
	}
	if q.TokenID != "token123" || q.Side != models.SideBuy {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestCLOBQuoteBadPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"nan-garbage"}`))
	}))
	defer srv.Close()

	c := NewCLOBClient(WithCLOBURL(srv.URL))
	if _, err := c.Quote(context.Background(), "token123", models.SideBuy); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLastTradePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/last-trade-price" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"price":"0.61"}`))
	}))
	defer srv.Close()

	c := NewCLOBClient(WithCLOBURL(srv.URL))
	price, err := c.LastTradePrice(context.Background(), "token123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 0.61 {
		t.Fatalf("unexpected price %v", price)
	}
}

func TestSlugPrefix(t *testing.T) {
	if got := SlugPrefix("BTC", 15*time.Minute); got != "btc-updown-15m" {
		t.Fatalf("unexpected prefix %s", got)
	}
	if got := SlugPrefix("eth", time.Hour); got != "eth-updown-60m" {
		t.Fatalf("unexpected prefix %s", got)
	}
}

func TestWindowTimestamp(t *testing.T) {
	ts, err := WindowTimestamp("btc-updown-15m-1700000100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != 1700000100 {
		t.Fatalf("unexpected ts %d", ts)
	}
	if _, err := WindowTimestamp("no-timestamp-here"); err == nil {
		t.Fatalf("expected error for non-numeric suffix")
	}
}

func TestCoerceList(t *testing.T) {
	if got := coerceList(json.RawMessage(`["a","b"]`)); len(got) != 2 || got[0] != "a" {
		t.Fatalf("unexpected list %v", got)
	}
	// Gamma sometimes returns the array serialized inside a string.
	if got := coerceList(json.RawMessage(`"[\"a\",\"b\"]"`)); len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected nested list %v", got)
	}
	if got := coerceList(json.RawMessage(`42`)); got != nil {
		t.Fatalf("expected nil for non-list, got %v", got)
	}
}

func TestResolveTokensOutcomeOrder(t *testing.T) {
	m := gammaMarket{
		ClobTokenIDs: json.RawMessage(`["down-token","up-token"]`),
		Outcomes:     json.RawMessage(`["Down","Up"]`),
	}
	up, down, err := resolveTokens(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up != "up-token" || down != "down-token" {
		t.Fatalf("outcome mapping wrong: up=%s down=%s", up, down)
	}
}

func TestResolveTokensMissing(t *testing.T) {
	m := gammaMarket{ClobTokenIDs: json.RawMessage(`["only-one"]`)}
	if _, _, err := resolveTokens(m); err == nil {
		t.Fatalf("expected error for single token")
	}
}

func TestCurrentMarketFromGamma(t *testing.T) {
	window := 15 * time.Minute
	windowStart := time.Now().UTC().Truncate(window)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("slug")
		resp := []map[string]any{{
			"slug": slug,
			"markets": []map[string]any{{
				"clobTokenIds":   `["up-token","down-token"]`,
				"outcomes":       `["Up","Down"]`,
				"eventStartTime": windowStart.Format(time.RFC3339),
				"endDate":        windowStart.Add(window).Format(time.RFC3339),
			}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGamma(WithGammaURL(srv.URL))
	market, err := g.CurrentMarket(context.Background(), "btc", window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market.TokenUp != "up-token" || market.TokenDown != "down-token" {
		t.Fatalf("unexpected market %+v", market)
	}
	if market.TimeRemaining <= 0 || market.TimeRemaining > window {
		t.Fatalf("unexpected time remaining %v", market.TimeRemaining)
	}
}
