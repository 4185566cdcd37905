package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"PolyRadar/internal/domain/models"
	xhttp "PolyRadar/pkg/http"
)

const DefaultBaseURL = "https://api.binance.com/api/v3"

// RESTClient queries Binance public market data over HTTP. Used both
// as the fallback candle source and to seed the stream buffer.
type RESTClient struct {
	baseURL string
	symbol  string
	client  *xhttp.Client
}

type RESTOption func(*RESTClient)

func WithBaseURL(u string) RESTOption {
	return func(c *RESTClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) RESTOption {
	return func(c *RESTClient) {
		if d > 0 {
			c.client = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

func NewRESTClient(symbol string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL: DefaultBaseURL,
		symbol:  symbol,
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Klines fetches the latest candles for the configured symbol.
func (c *RESTClient) Klines(ctx context.Context, interval string, limit int) ([]models.Candle, error) {
	var raw json.RawMessage
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/klines",
		QueryParams: map[string][]string{
			"symbol":   {c.symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	return parseKlines(raw)
}

// KlinesAt fetches candles starting at the given open time. Used to
// resolve the price to beat at a market window start.
func (c *RESTClient) KlinesAt(ctx context.Context, interval string, start time.Time, limit int) ([]models.Candle, error) {
	var raw json.RawMessage
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/klines",
		QueryParams: map[string][]string{
			"symbol":    {c.symbol},
			"interval":  {interval},
			"startTime": {strconv.FormatInt(start.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch klines at %v: %w", start, err)
	}
	return parseKlines(raw)
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Price returns the current ticker price.
func (c *RESTClient) Price(ctx context.Context) (float64, error) {
	var tp tickerPrice
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/ticker/price",
		QueryParams: map[string][]string{"symbol": {c.symbol}},
	}, &tp)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker: %w", err)
	}
	price, err := strconv.ParseFloat(tp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", tp.Price, err)
	}
	return price, nil
}

// PriceAt returns the open of the 1m candle covering t.
func (c *RESTClient) PriceAt(ctx context.Context, t time.Time) (float64, error) {
	candles, err := c.KlinesAt(ctx, "1m", t.Truncate(time.Minute), 1)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("no candle at %v", t)
	}
	return candles[0].Open, nil
}

// parseKlines decodes the Binance kline payload, an array of arrays
// mixing numbers and strings.
func parseKlines(raw []byte) ([]models.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d too short", i)
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline row %d open time: %w", i, err)
		}
		fields := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			var s string
			if err := json.Unmarshal(row[j], &s); err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			fields[j-1] = v
		}
		candles = append(candles, models.Candle{
			OpenTime: openTime,
			Open:     fields[0],
			High:     fields[1],
			Low:      fields[2],
			Close:    fields[3],
			Volume:   fields[4],
		})
	}
	return candles, nil
}
