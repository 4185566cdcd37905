package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/pkg/logger"

	"github.com/gorilla/websocket"
)

// Default kline stream endpoints, tried round-robin on reconnect.
var DefaultEndpoints = []string{
	"wss://stream.binance.com:9443/ws",
	"wss://stream.binance.com:443/ws",
}

const (
	reconnectBase = 2 * time.Second
	reconnectMax  = 30 * time.Second
	pingInterval  = 30 * time.Second

	// Stream data is usable when the buffer holds at least this many
	// candles and the last update is fresher than the staleness cap.
	minStreamCandles = 5
	maxStreamAge     = 10 * time.Second
)

// StreamFeed implements a CandleFeed over the Binance kline
// websocket, falling back to REST when the stream is cold or stale.
type StreamFeed struct {
	symbol    string
	interval  string
	endpoints []string
	rest      *RESTClient
	buffer    *CandleBuffer
	log       *logger.Logger

	connected    atomic.Bool
	reconnects   atomic.Int64
	endpointIdx  int
	cancel       context.CancelFunc
	done         chan struct{}
	startStopMu  sync.Mutex
	running      bool
	lastSource   atomic.Value // models.CandleSource
}

type StreamOption func(*StreamFeed)

func WithEndpoints(endpoints []string) StreamOption {
	return func(f *StreamFeed) {
		if len(endpoints) > 0 {
			f.endpoints = endpoints
		}
	}
}

func WithBuffer(size int) StreamOption {
	return func(f *StreamFeed) {
		f.buffer = NewCandleBuffer(size)
	}
}

func NewStreamFeed(symbol, interval string, rest *RESTClient, log *logger.Logger, opts ...StreamOption) *StreamFeed {
	f := &StreamFeed{
		symbol:    symbol,
		interval:  interval,
		endpoints: DefaultEndpoints,
		rest:      rest,
		buffer:    NewCandleBuffer(DefaultBufferSize),
		log:       log,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastSource.Store(models.SourceFallback)
	return f
}

// Start seeds the buffer over REST and launches the websocket loop.
func (f *StreamFeed) Start(ctx context.Context) error {
	f.startStopMu.Lock()
	defer f.startStopMu.Unlock()
	if f.running {
		return nil
	}

	if candles, err := f.rest.Klines(ctx, f.interval, f.buffer.capacity); err != nil {
		f.log.Warn("seed klines failed", logger.Error(err))
	} else {
		f.buffer.Seed(candles)
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.running = true
	go f.runLoop(runCtx)
	return nil
}

func (f *StreamFeed) streamURL() string {
	url := f.endpoints[f.endpointIdx%len(f.endpoints)]
	return fmt.Sprintf("%s/%s@kline_%s", url, strings.ToLower(f.symbol), f.interval)
}

// runLoop reconnects with exponential backoff, alternating endpoints.
func (f *StreamFeed) runLoop(ctx context.Context) {
	defer close(f.done)
	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}
		url := f.streamURL()
		established, err := f.consume(ctx, url)
		f.connected.Store(false)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			f.log.Warn("stream disconnected",
				logger.String("url", url),
				logger.Error(err))
		}
		if established {
			// A successful connection resets the backoff.
			failures = 0
		}

		delay := backoffDelay(failures)
		failures++
		f.endpointIdx++
		f.reconnects.Add(1)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

type klinePayload struct {
	Kline *struct {
		OpenTime int64  `json:"t"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

// backoffDelay doubles from the base, capped at the ceiling.
func backoffDelay(failures int) time.Duration {
	delay := reconnectBase
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= reconnectMax {
			return reconnectMax
		}
	}
	if delay > reconnectMax {
		return reconnectMax
	}
	return delay
}

func (f *StreamFeed) consume(ctx context.Context, url string) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	f.connected.Store(true)
	f.log.Info("stream connected", logger.String("url", url))

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		var payload klinePayload
		if err := conn.ReadJSON(&payload); err != nil {
			return true, fmt.Errorf("read frame: %w", err)
		}
		k := payload.Kline
		if k == nil {
			continue
		}
		candle, err := parseStreamKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			f.log.Warn("bad kline frame", logger.Error(err))
			continue
		}
		f.buffer.Apply(candle, k.Closed)
	}
}

func parseStreamKline(openTime int64, open, high, low, closePx, volume string) (models.Candle, error) {
	fields := [5]float64{}
	for i, s := range []string{open, high, low, closePx, volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parse kline field %d %q: %w", i, s, err)
		}
		fields[i] = v
	}
	return models.Candle{
		OpenTime: openTime,
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, nil
}

// Candles returns the freshest window available: the stream buffer
// when it is warm, otherwise a REST fetch. The REST result reseeds an
// empty buffer.
func (f *StreamFeed) Candles(ctx context.Context, limit int) ([]models.Candle, models.CandleSource, error) {
	if f.streamUsable() {
		f.lastSource.Store(models.SourceStream)
		return f.buffer.Snapshot(limit), models.SourceStream, nil
	}

	candles, err := f.rest.Klines(ctx, f.interval, limit)
	if err != nil {
		// Serve stale stream data rather than nothing.
		if snap := f.buffer.Snapshot(limit); len(snap) > 0 {
			f.lastSource.Store(models.SourceStream)
			return snap, models.SourceStream, nil
		}
		return nil, models.SourceFallback, fmt.Errorf("candles fallback: %w", err)
	}
	if f.buffer.Len() == 0 {
		f.buffer.Seed(candles)
	}
	f.lastSource.Store(models.SourceFallback)
	return candles, models.SourceFallback, nil
}

func (f *StreamFeed) streamUsable() bool {
	return f.connected.Load() &&
		f.buffer.Len() >= minStreamCandles &&
		time.Since(f.buffer.LastUpdate()) < maxStreamAge
}

func (f *StreamFeed) SpotPrice(ctx context.Context) (float64, error) {
	if f.streamUsable() {
		snap := f.buffer.Snapshot(1)
		if len(snap) > 0 {
			return snap[0].Close, nil
		}
	}
	return f.rest.Price(ctx)
}

func (f *StreamFeed) Healthy() bool { return f.streamUsable() }

// Source reports where the last candle window came from.
func (f *StreamFeed) Source() models.CandleSource {
	return f.lastSource.Load().(models.CandleSource)
}

func (f *StreamFeed) Reconnects() int64 { return f.reconnects.Load() }

func (f *StreamFeed) Close() error {
	f.startStopMu.Lock()
	defer f.startStopMu.Unlock()
	if !f.running {
		return nil
	}
	f.running = false
	f.cancel()
	<-f.done
	return nil
}
