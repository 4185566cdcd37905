package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PolyRadar/internal/domain/models"
	"PolyRadar/internal/domain/repository"
	"PolyRadar/internal/indicator"
	"PolyRadar/internal/service/ratelimit"
	sigeng "PolyRadar/internal/signal"
	"PolyRadar/pkg/logger"
	"PolyRadar/pkg/pool"
)

const (
	defaultMarketRefresh   = time.Minute
	marketRefreshBackoffCap = 5 * time.Minute

	streamCycle   = 500 * time.Millisecond
	fallbackCycle = 2 * time.Second

	candleWindow = 20

	alertKeyMeanReversion = "mean_reversion"
	alertKeyPriceBeat     = "price_beat"
	alertKeyPosition      = "position"
	alertKeyHighPrice     = "high_price"
	alertInterval         = 30 * time.Second // between alerts of one kind
	positionAlertInterval = 15 * time.Second

	highPriceLevel = 0.80
)

// ReferencePriceSource resolves the underlying asset price at a point
// in time, used for the price to beat.
type ReferencePriceSource interface {
	PriceAt(ctx context.Context, t time.Time) (float64, error)
}

// Alert is a noteworthy condition surfaced to API consumers.
type Alert struct {
	Kind      string    `json:"kind"`
	Direction string    `json:"direction"`
	Price     float64   `json:"price"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RadarConfig tunes the evaluation loop.
type RadarConfig struct {
	Asset          string
	Window         time.Duration
	MarketRefresh  time.Duration
	PriceBeatAlert float64
}

func (c *RadarConfig) normalize() {
	if c.Asset == "" {
		c.Asset = "btc"
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.MarketRefresh <= 0 {
		c.MarketRefresh = defaultMarketRefresh
	}
	if c.PriceBeatAlert == 0 {
		c.PriceBeatAlert = 80
	}
}

// Radar drives the evaluation loop: candles in, signal out.
type Radar struct {
	cfg RadarConfig

	feed      repository.CandleFeed
	quotes    repository.QuoteSource
	directory repository.MarketDirectory
	refPrice  ReferencePriceSource

	indicators *indicator.Engine
	engine     *sigeng.Engine
	history    *sigeng.History
	session    *Session

	sink      repository.SignalSink
	publisher repository.SignalPublisher
	snapshots repository.SnapshotStore
	metrics   repository.Metrics
	limiter   *ratelimit.Limiter
	log       *logger.Logger

	mu             sync.RWMutex
	market         *models.Market
	priceToBeat    float64
	lastSignal     *models.SignalResult
	lastCandles    []models.Candle
	lastSource     models.CandleSource
	lastAlert      *Alert
	positions      []models.Position
	lastRefresh    time.Time
	baseRemaining  time.Duration
	refreshErrors  int
	binanceErrors  int
}

// RadarDeps bundles the collaborators the loop needs.
type RadarDeps struct {
	Feed      repository.CandleFeed
	Quotes    repository.QuoteSource
	Directory repository.MarketDirectory
	RefPrice  ReferencePriceSource
	Sink      repository.SignalSink
	Publisher repository.SignalPublisher
	Snapshots repository.SnapshotStore
	Metrics   repository.Metrics
	Logger    *logger.Logger
}

func NewRadar(cfg RadarConfig, indicators *indicator.Engine, engine *sigeng.Engine, deps RadarDeps) *Radar {
	cfg.normalize()
	return &Radar{
		cfg:        cfg,
		feed:       deps.Feed,
		quotes:     deps.Quotes,
		directory:  deps.Directory,
		refPrice:   deps.RefPrice,
		indicators: indicators,
		engine:     engine,
		history:    sigeng.NewHistory(sigeng.DefaultHistorySize),
		session:    NewSession(),
		sink:       deps.Sink,
		publisher:  deps.Publisher,
		snapshots:  deps.Snapshots,
		metrics:    deps.Metrics,
		limiter:    ratelimit.New(),
		log:        deps.Logger,
	}
}

// Run blocks, evaluating cycles until the context is cancelled.
func (r *Radar) Run(ctx context.Context) error {
	if err := r.refreshMarket(ctx); err != nil {
		return fmt.Errorf("initial market discovery: %w", err)
	}

	for {
		cycle := r.evaluate(ctx)
		select {
		case <-ctx.Done():
			r.logSessionSummary()
			return ctx.Err()
		case <-time.After(cycle):
		}
	}
}

// evaluate runs one cycle and returns the delay before the next one.
func (r *Radar) evaluate(ctx context.Context) time.Duration {
	r.maybeRefreshMarket(ctx)

	market, remaining := r.currentWindow()
	if market == nil {
		return fallbackCycle
	}

	candles, source, err := r.feed.Candles(ctx, candleWindow)
	if err != nil || len(candles) == 0 {
		r.binanceErrors++
		r.metrics.RecordError("candles")
		delay := backoff(2*time.Second, r.binanceErrors, 30*time.Second)
		r.log.Warn("candle fetch failed",
			logger.Int("attempt", r.binanceErrors),
			logger.Duration("retry_in", delay),
			logger.Error(err))
		return delay
	}
	r.binanceErrors = 0

	snap := r.indicators.Snapshot(candles)
	spot := snap.Price
	r.metrics.RecordSpotPrice(r.cfg.Asset, spot)

	upBuy, downBuy, latency, err := r.fetchQuotes(ctx, market)
	if err != nil || upBuy <= 0 {
		r.metrics.RecordError("quotes")
		r.log.Warn("token prices unavailable",
			logger.Float64("up", upBuy),
			logger.Float64("down", downBuy),
			logger.Error(err))
		return fallbackCycle
	}
	r.metrics.RecordLatency("poly_quotes", latency.Seconds())

	phase := sigeng.PhaseFor(remaining, market.Window)

	r.history.Append(models.HistoryEntry{
		Timestamp: time.Now(),
		Spot:      spot,
		Up:        upBuy,
		Down:      downBuy,
	})

	result := r.engine.Compute(sigeng.Input{
		UpBuy:     upBuy,
		DownBuy:   downBuy,
		SpotPrice: spot,
		Snapshot:  snap,
		History:   r.history.Snapshot(),
		Regime:    snap.Regime,
		Phase:     phase,
	})
	if result == nil {
		return fallbackCycle
	}

	r.metrics.RecordSignal(string(result.Direction), result.Strength)
	r.metrics.RecordQuote(string(models.SideBuy), upBuy)

	r.mu.Lock()
	r.lastSignal = result
	r.lastCandles = candles
	r.lastSource = source
	r.mu.Unlock()

	r.persist(ctx, result)
	r.checkAlerts(snap, phase, spot, upBuy, downBuy)

	if source == models.SourceStream {
		return streamCycle
	}
	return fallbackCycle
}

// fetchQuotes pulls both token buy prices concurrently.
func (r *Radar) fetchQuotes(ctx context.Context, market *models.Market) (up, down float64, latency time.Duration, err error) {
	start := time.Now()
	g := pool.NewGroup(ctx, pool.WithLimit(2))
	g.Go(func(ctx context.Context) error {
		q, qerr := r.quotes.Quote(ctx, market.TokenUp, models.SideBuy)
		if qerr != nil {
			return fmt.Errorf("up quote: %w", qerr)
		}
		up = q.Price
		return nil
	})
	g.Go(func(ctx context.Context) error {
		q, qerr := r.quotes.Quote(ctx, market.TokenDown, models.SideBuy)
		if qerr != nil {
			return fmt.Errorf("down quote: %w", qerr)
		}
		down = q.Price
		return nil
	})
	err = g.Wait()
	return up, down, time.Since(start), err
}

// persist fans the signal out to storage, the stream and the shared
// snapshot. All three are best effort.
func (r *Radar) persist(ctx context.Context, sig *models.SignalResult) {
	if r.sink != nil {
		if err := r.sink.RecordSignal(ctx, sig); err != nil {
			r.metrics.RecordError("sink_signal")
			r.log.Warn("signal store failed", logger.Error(err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, sig); err != nil {
			r.metrics.RecordError("publish_signal")
			r.log.Warn("signal publish failed", logger.Error(err))
		}
	}
	if r.snapshots != nil {
		if err := r.snapshots.SaveSnapshot(ctx, sig); err != nil {
			r.metrics.RecordError("snapshot_signal")
			r.log.Warn("snapshot save failed", logger.Error(err))
		}
	}
}

// maybeRefreshMarket re-resolves the market slug on an interval that
// backs off exponentially while discovery fails.
func (r *Radar) maybeRefreshMarket(ctx context.Context) {
	r.mu.RLock()
	last := r.lastRefresh
	errors := r.refreshErrors
	r.mu.RUnlock()

	interval := backoff(r.cfg.MarketRefresh, errors, marketRefreshBackoffCap)
	if time.Since(last) < interval {
		return
	}
	if err := r.refreshMarket(ctx); err != nil {
		r.mu.Lock()
		r.refreshErrors++
		r.lastRefresh = time.Now()
		r.mu.Unlock()
		r.metrics.RecordError("market_refresh")
		r.log.Warn("market refresh failed",
			logger.Int("attempt", errors+1),
			logger.Error(err))
	}
}

func (r *Radar) refreshMarket(ctx context.Context) error {
	market, err := r.directory.CurrentMarket(ctx, r.cfg.Asset, r.cfg.Window)
	if err != nil {
		return err
	}

	r.mu.Lock()
	prev := r.market
	r.market = market
	r.lastRefresh = time.Now()
	r.baseRemaining = market.TimeRemaining
	r.refreshErrors = 0
	transition := prev != nil && prev.Slug != market.Slug
	expired := append([]models.Position(nil), r.positions...)
	if transition {
		r.positions = nil
	}
	r.mu.Unlock()

	if transition {
		r.onMarketTransition(ctx, prev, market, expired)
	}

	if ptb, err := r.resolvePriceToBeat(ctx, market); err != nil {
		r.log.Warn("price to beat unavailable", logger.Error(err))
	} else {
		r.mu.Lock()
		r.priceToBeat = ptb
		r.market.PriceToBeat = ptb
		r.mu.Unlock()
	}

	r.log.Info("market resolved",
		logger.String("slug", market.Slug),
		logger.Duration("remaining", market.TimeRemaining))
	return nil
}

// onMarketTransition settles leftover positions at the last quote and
// clears per-window state.
func (r *Radar) onMarketTransition(ctx context.Context, prev, next *models.Market, expired []models.Position) {
	r.log.Info("market switched",
		logger.String("from", prev.Slug),
		logger.String("to", next.Slug),
		logger.Int("expired_positions", len(expired)))

	for _, pos := range expired {
		exit := 0.0
		if q, err := r.quotes.Quote(ctx, pos.TokenID, models.SideBuy); err == nil {
			exit = q.Price
		}
		pnl := (exit - pos.EntryPrice) * pos.Shares
		sessionPL := r.session.Record(pnl)
		ev := &models.TradeEvent{
			Timestamp: time.Now(),
			Action:    "CLOSE",
			Direction: pos.Direction,
			Shares:    pos.Shares,
			Price:     exit,
			Reason:    "market_expired",
			PnL:       pnl,
			SessionPL: sessionPL,
		}
		if r.sink != nil {
			if err := r.sink.RecordTrade(ctx, ev); err != nil {
				r.log.Warn("trade record failed", logger.Error(err))
			}
		}
	}

	r.history.Reset()
	for _, key := range []string{alertKeyMeanReversion, alertKeyPriceBeat, alertKeyHighPrice} {
		r.limiter.Reset(key)
	}
}

func (r *Radar) resolvePriceToBeat(ctx context.Context, market *models.Market) (float64, error) {
	if r.refPrice == nil {
		return 0, fmt.Errorf("no reference price source")
	}
	return r.refPrice.PriceAt(ctx, market.WindowStart)
}

// currentWindow returns the active market and its decreasing time
// remaining, extrapolated from the last refresh.
func (r *Radar) currentWindow() (*models.Market, time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.market == nil {
		return nil, 0
	}
	elapsed := time.Since(r.lastRefresh)
	remaining := r.baseRemaining - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return r.market, remaining
}

// checkAlerts raises position exit alerts on every cycle, plus mean
// reversion and price-to-beat alerts during the MID phase. Each kind
// is throttled independently.
func (r *Radar) checkAlerts(snap *models.IndicatorSnapshot, phase models.Phase, spot, upBuy, downBuy float64) {
	r.checkPositionAlerts(upBuy, downBuy)

	if upBuy >= highPriceLevel && r.limiter.Allow(alertKeyHighPrice, alertInterval) {
		r.raiseAlert(Alert{
			Kind:      alertKeyHighPrice,
			Direction: string(models.DirectionUp),
			Price:     upBuy,
			Message:   fmt.Sprintf("UP token trading at %.2f", upBuy),
			Timestamp: time.Now(),
		})
	}

	if phase != models.PhaseMid {
		return
	}

	// Mean reversion: RSI pinned to an extreme while price touches a
	// band, with the reversal token still cheap.
	var direction string
	switch {
	case snap.RSI <= 15 && snap.BBPosition <= 0.10:
		direction = string(models.DirectionUp)
	case snap.RSI >= 85 && snap.BBPosition >= 0.90:
		direction = string(models.DirectionDown)
	}
	if direction != "" {
		tokenPrice := upBuy
		if direction == string(models.DirectionDown) {
			tokenPrice = downBuy
		}
		if tokenPrice < 0.70 && r.limiter.Allow(alertKeyMeanReversion, alertInterval) {
			r.raiseAlert(Alert{
				Kind:      alertKeyMeanReversion,
				Direction: direction,
				Price:     tokenPrice,
				Message: fmt.Sprintf("mean reversion %s: rsi=%.0f bb=%.2f token=%.2f",
					direction, snap.RSI, snap.BBPosition, tokenPrice),
				Timestamp: time.Now(),
			})
		}
		return
	}

	// Price to beat: spot has moved far from the window open while the
	// matching token is still cheap.
	r.mu.RLock()
	ptb := r.priceToBeat
	r.mu.RUnlock()
	if ptb <= 0 || r.cfg.PriceBeatAlert <= 0 {
		return
	}
	diff := spot - ptb
	tokenPrice := upBuy
	dir := string(models.DirectionUp)
	if diff < 0 {
		tokenPrice = downBuy
		dir = string(models.DirectionDown)
	}
	if abs(diff) >= r.cfg.PriceBeatAlert && tokenPrice < 0.70 &&
		r.limiter.Allow(alertKeyPriceBeat, alertInterval) {
		r.raiseAlert(Alert{
			Kind:      alertKeyPriceBeat,
			Direction: dir,
			Price:     tokenPrice,
			Message: fmt.Sprintf("price beat %s: spot %.0f from window open, token=%.2f",
				dir, abs(diff), tokenPrice),
			Timestamp: time.Now(),
		})
	}
}

// checkPositionAlerts warns when an open position crosses its exit
// levels. The levels are tighter than the monitor's so the alert
// fires before an automated exit would.
func (r *Radar) checkPositionAlerts(upBuy, downBuy float64) {
	r.mu.RLock()
	positions := append([]models.Position(nil), r.positions...)
	market := r.market
	r.mu.RUnlock()
	if market == nil {
		return
	}

	for _, pos := range positions {
		price := upBuy
		if pos.TokenID == market.TokenDown {
			price = downBuy
		}
		if price <= 0 {
			continue
		}

		tp := min(pos.EntryPrice+0.20, 0.55)
		sl := max(pos.EntryPrice-0.15, 0.05)
		var msg string
		switch {
		case price >= tp:
			msg = fmt.Sprintf("position near take profit: %.2f >= %.2f", price, tp)
		case price <= sl:
			msg = fmt.Sprintf("position near stop loss: %.2f <= %.2f", price, sl)
		default:
			continue
		}
		if r.limiter.Allow(alertKeyPosition+":"+pos.TokenID, positionAlertInterval) {
			r.raiseAlert(Alert{
				Kind:      alertKeyPosition,
				Direction: string(pos.Direction),
				Price:     price,
				Message:   msg,
				Timestamp: time.Now(),
			})
		}
	}
}

func (r *Radar) raiseAlert(a Alert) {
	r.mu.Lock()
	r.lastAlert = &a
	r.mu.Unlock()
	r.log.Info("alert",
		logger.String("kind", a.Kind),
		logger.String("direction", a.Direction),
		logger.Float64("price", a.Price))
}

func (r *Radar) logSessionSummary() {
	stats := r.session.Stats()
	r.log.Info("session summary",
		logger.Int("trades", stats.Trades),
		logger.Int("wins", stats.Wins),
		logger.Int("losses", stats.Losses),
		logger.Float64("pnl", stats.PnL),
		logger.Float64("profit_factor", stats.ProfitFactor),
		logger.Float64("max_drawdown", stats.MaxDrawdown),
		logger.Duration("duration", stats.Duration))
}

// --- accessors for the API layer ---

func (r *Radar) CurrentSignal() *models.SignalResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSignal
}

func (r *Radar) Candles() ([]models.Candle, models.CandleSource) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Candle, len(r.lastCandles))
	copy(out, r.lastCandles)
	return out, r.lastSource
}

func (r *Radar) Market() *models.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.market
}

func (r *Radar) Positions() []models.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Position, len(r.positions))
	copy(out, r.positions)
	return out
}

// TrackPosition registers an externally opened position so transitions
// and the API can see it.
func (r *Radar) TrackPosition(pos models.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, pos)
}

func (r *Radar) ClearPositions() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = nil
}

func (r *Radar) LastAlert() *Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastAlert
}

func (r *Radar) Session() *Session { return r.session }

func (r *Radar) Healthy() bool { return r.feed.Healthy() }

// backoff doubles base per failure, capped at max.
func backoff(base time.Duration, failures int, max time.Duration) time.Duration {
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
