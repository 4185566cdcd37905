package polymarket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"PolyRadar/internal/domain/models"
	xhttp "PolyRadar/pkg/http"
)

const (
	DefaultCLOBURL  = "https://clob.polymarket.com"
	DefaultGammaURL = "https://gamma-api.polymarket.com"
)

// CLOBClient fetches order book prices for outcome tokens.
type CLOBClient struct {
	baseURL string
	client  *xhttp.Client
}

type CLOBOption func(*CLOBClient)

func WithCLOBURL(u string) CLOBOption {
	return func(c *CLOBClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithCLOBTimeout(d time.Duration) CLOBOption {
	return func(c *CLOBClient) {
		if d > 0 {
			c.client = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

func NewCLOBClient(opts ...CLOBOption) *CLOBClient {
	c := &CLOBClient{
		baseURL: DefaultCLOBURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(5 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type priceResponse struct {
	Price string `json:"price"`
}

// Quote returns the best order book price for one token side.
func (c *CLOBClient) Quote(ctx context.Context, tokenID string, side models.Side) (*models.Quote, error) {
	var pr priceResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/price",
		QueryParams: map[string][]string{
			"token_id": {tokenID},
			"side":     {string(side)},
		},
	}, &pr)
	if err != nil {
		return nil, fmt.Errorf("fetch price %s/%s: %w", shortToken(tokenID), side, err)
	}
	price, err := strconv.ParseFloat(pr.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", pr.Price, err)
	}
	return &models.Quote{
		TokenID:   tokenID,
		Side:      side,
		Price:     price,
		FetchedAt: time.Now(),
	}, nil
}

// LastTradePrice returns the last executed trade price for a token.
func (c *CLOBClient) LastTradePrice(ctx context.Context, tokenID string) (float64, error) {
	var pr priceResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/last-trade-price",
		QueryParams: map[string][]string{"token_id": {tokenID}},
	}, &pr)
	if err != nil {
		return 0, fmt.Errorf("fetch last trade %s: %w", shortToken(tokenID), err)
	}
	price, err := strconv.ParseFloat(pr.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last trade price %q: %w", pr.Price, err)
	}
	return price, nil
}

func shortToken(tokenID string) string {
	if len(tokenID) > 8 {
		return tokenID[:8]
	}
	return tokenID
}
