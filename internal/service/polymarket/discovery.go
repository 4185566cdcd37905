package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"PolyRadar/internal/domain/models"
	xhttp "PolyRadar/pkg/http"
)

// Gamma resolves the active updown market for an asset window via the
// Gamma events API. Slugs follow the {asset}-updown-{window}m-{ts}
// convention where ts is the window start unix timestamp.
type Gamma struct {
	baseURL string
	client  *xhttp.Client
}

type GammaOption func(*Gamma)

func WithGammaURL(u string) GammaOption {
	return func(g *Gamma) {
		if u != "" {
			g.baseURL = u
		}
	}
}

func NewGamma(opts ...GammaOption) *Gamma {
	g := &Gamma{
		baseURL: DefaultGammaURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type gammaEvent struct {
	Slug    string        `json:"slug"`
	Markets []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	ClobTokenIDs   json.RawMessage `json:"clobTokenIds"`
	Outcomes       json.RawMessage `json:"outcomes"`
	EventStartTime string          `json:"eventStartTime"`
	EndDate        string          `json:"endDate"`
}

// SlugPrefix builds the event slug prefix for an asset and window.
func SlugPrefix(asset string, window time.Duration) string {
	return fmt.Sprintf("%s-updown-%dm", strings.ToLower(asset), int(window.Minutes()))
}

// CurrentMarket locates the market covering the current window. It
// tries the rounded window start first, then adjacent windows, since
// event timestamps occasionally drift by one window.
func (g *Gamma) CurrentMarket(ctx context.Context, asset string, window time.Duration) (*models.Market, error) {
	now := time.Now().UTC()
	windowSec := int64(window.Seconds())
	windowStart := now.Truncate(window)
	target := windowStart.Unix()
	rounded := (target + windowSec/2) / windowSec * windowSec

	candidates := []int64{rounded, target, rounded - windowSec, rounded + windowSec}
	prefix := SlugPrefix(asset, window)

	var lastErr error
	for _, ts := range candidates {
		slug := fmt.Sprintf("%s-%d", prefix, ts)
		market, err := g.lookup(ctx, slug, windowStart, window)
		if err != nil {
			lastErr = err
			continue
		}
		if market != nil {
			return market, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("market %s not found: %w", prefix, lastErr)
	}
	return nil, fmt.Errorf("market %s not found for current window", prefix)
}

func (g *Gamma) lookup(ctx context.Context, slug string, windowStart time.Time, window time.Duration) (*models.Market, error) {
	var events []gammaEvent
	err := g.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         g.baseURL + "/events",
		QueryParams: map[string][]string{"slug": {slug}},
	}, &events)
	if err != nil {
		return nil, fmt.Errorf("gamma events %s: %w", slug, err)
	}
	if len(events) == 0 || len(events[0].Markets) == 0 {
		return nil, nil
	}

	ev := events[0]
	m := ev.Markets[0]

	// Reject events whose start drifts more than two minutes from the
	// expected window start.
	if start, err := parseISO(m.EventStartTime); err == nil {
		if diff := start.Sub(windowStart); diff > 2*time.Minute || diff < -2*time.Minute {
			return nil, nil
		}
	}

	tokenUp, tokenDown, err := resolveTokens(m)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.Slug, err)
	}

	market := &models.Market{
		Slug:        ev.Slug,
		TokenUp:     tokenUp,
		TokenDown:   tokenDown,
		WindowStart: windowStart,
		Window:      window,
	}
	if end, err := parseISO(m.EndDate); err == nil {
		market.TimeRemaining = time.Until(end)
	}
	return market, nil
}

// resolveTokens maps clob token ids onto the Up and Down outcomes.
// Both fields may arrive as JSON arrays or as strings containing a
// JSON array.
func resolveTokens(m gammaMarket) (up, down string, err error) {
	ids := coerceList(m.ClobTokenIDs)
	if len(ids) < 2 {
		return "", "", fmt.Errorf("up/down tokens not found")
	}
	outcomes := coerceList(m.Outcomes)

	idxUp, idxDown := 0, 1
	if iu, id := indexOf(outcomes, "Up"), indexOf(outcomes, "Down"); iu >= 0 && id >= 0 {
		idxUp, idxDown = iu, id
	}
	if idxUp >= len(ids) || idxDown >= len(ids) {
		return "", "", fmt.Errorf("outcome index out of range")
	}
	return ids[idxUp], ids[idxDown], nil
}

func coerceList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return list
		}
	}
	return nil
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func parseISO(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return t, nil
}

// WindowTimestamp extracts the unix window start from an event slug.
func WindowTimestamp(slug string) (int64, error) {
	idx := strings.LastIndex(slug, "-")
	if idx < 0 || idx == len(slug)-1 {
		return 0, fmt.Errorf("slug %q has no timestamp", slug)
	}
	ts, err := strconv.ParseInt(slug[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("slug %q timestamp: %w", slug, err)
	}
	return ts, nil
}
