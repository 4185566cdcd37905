package di

import (
	"context"
	"fmt"
	"time"

	"PolyRadar/internal/domain/repository"
	"PolyRadar/internal/handler/api"
	"PolyRadar/internal/indicator"
	internalrepo "PolyRadar/internal/repository"
	"PolyRadar/internal/service/binance"
	icache "PolyRadar/internal/service/cache"
	"PolyRadar/internal/service/polymarket"
	"PolyRadar/internal/service/trader"
	"PolyRadar/internal/signal"
	"PolyRadar/internal/usecase"
	pkgcache "PolyRadar/pkg/cache"
	pkgch "PolyRadar/pkg/clickhouse"
	"PolyRadar/pkg/config"
	pkgkafka "PolyRadar/pkg/kafka"
	applogger "PolyRadar/pkg/logger"
	"PolyRadar/pkg/metrics"
	"PolyRadar/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRESTClient creates the Binance REST client.
func ProvideRESTClient(cfg *config.Config) *binance.RESTClient {
	return binance.NewRESTClient(cfg.Radar.Symbol,
		binance.WithBaseURL(cfg.Binance.RESTURL),
	)
}

// ProvideCandleFeed creates the streaming candle feed.
func ProvideCandleFeed(cfg *config.Config, rest *binance.RESTClient, log *applogger.Logger) repository.CandleFeed {
	opts := []binance.StreamOption{}
	if len(cfg.Binance.Endpoints) > 0 {
		opts = append(opts, binance.WithEndpoints(cfg.Binance.Endpoints))
	}
	return binance.NewStreamFeed(cfg.Radar.Symbol, cfg.Radar.Interval, rest, log, opts...)
}

// ProvideQuoteSource creates the CLOB client wrapped in a short TTL
// cache so one cycle never fetches the same token twice.
func ProvideQuoteSource(cfg *config.Config) repository.QuoteSource {
	clob := polymarket.NewCLOBClient(polymarket.WithCLOBURL(cfg.Polymarket.ClobURL))
	return icache.NewQuoteCache(clob, cfg.Polymarket.QuoteTTL)
}

// ProvideMarketDirectory creates the Gamma market discovery client.
func ProvideMarketDirectory(cfg *config.Config) repository.MarketDirectory {
	return polymarket.NewGamma(polymarket.WithGammaURL(cfg.Polymarket.GammaURL))
}

// ProvideIndicatorEngine creates the indicator engine with configured
// periods.
func ProvideIndicatorEngine(cfg *config.Config) *indicator.Engine {
	ind := cfg.Indicators
	return indicator.NewEngine(indicator.Params{
		RSIPeriod:  ind.RSIPeriod,
		MACDFast:   ind.MACDFast,
		MACDSlow:   ind.MACDSlow,
		MACDSignal: ind.MACDSignal,
		BBPeriod:   ind.BBPeriod,
		BBStd:      ind.BBStd,
		ADXPeriod:  ind.ADXPeriod,
	})
}

// ProvideSignalEngine creates the signal engine from configured
// component weights and tuning.
func ProvideSignalEngine(cfg *config.Config) *signal.Engine {
	s := cfg.Signal
	return signal.NewEngine(signal.Config{
		Weights: signal.Weights{
			Momentum:   s.Weights.Momentum,
			Divergence: s.Weights.Divergence,
			SR:         s.Weights.SupportResistance,
			MACD:       s.Weights.MACD,
			VWAP:       s.Weights.VWAP,
			Bollinger:  s.Weights.Bollinger,
		},
		VolThreshold:       s.VolThreshold,
		VolAmplifier:       s.VolAmplifier,
		ChopMult:           s.ChopMult,
		TrendBoost:         s.TrendBoost,
		CounterMult:        s.CounterMult,
		NeutralZone:        s.NeutralZone,
		DivergenceLookback: s.DivergenceLookback,
		SRLookback:         s.SRLookback,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// schema exists. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSignalSink creates the ClickHouse sink, or nil when disabled.
func ProvideSignalSink(chClient *pkgch.Client, cfg *config.Config, log *applogger.Logger) repository.SignalSink {
	if chClient == nil {
		return nil
	}
	sink := internalrepo.NewCHSignalSink(chClient, cfg.ClickHouse.Database)
	sink.SetLogger(log)
	return sink
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher creates the Kafka signal publisher, or nil
// when Kafka is disabled.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSnapshotStore creates the Redis snapshot store, or nil when
// Redis is disabled.
func ProvideSnapshotStore(cfg *config.Config) (repository.SnapshotStore, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return internalrepo.NewRedisSnapshotStore(rc), nil
}

// ProvideRadar assembles the evaluation loop.
func ProvideRadar(
	cfg *config.Config,
	feed repository.CandleFeed,
	quotes repository.QuoteSource,
	directory repository.MarketDirectory,
	rest *binance.RESTClient,
	indicators *indicator.Engine,
	engine *signal.Engine,
	sink repository.SignalSink,
	publisher repository.SignalPublisher,
	snapshots repository.SnapshotStore,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Radar {
	return usecase.NewRadar(usecase.RadarConfig{
		Asset:          cfg.Radar.Asset,
		Window:         cfg.Radar.Window,
		MarketRefresh:  cfg.Radar.MarketRefresh,
		PriceBeatAlert: cfg.Radar.PriceBeatAlert,
	}, indicators, engine, usecase.RadarDeps{
		Feed:      feed,
		Quotes:    quotes,
		Directory: directory,
		RefPrice:  rest,
		Sink:      sink,
		Publisher: publisher,
		Snapshots: snapshots,
		Metrics:   m,
		Logger:    log,
	})
}

// ProvideTrader creates the order executor. Only the dry run trader
// is available for now.
func ProvideTrader(log *applogger.Logger) repository.Trader {
	return trader.NewDryRun(log)
}

// ProvideExecutor creates the manual trade executor, or nil when
// trading is disabled.
func ProvideExecutor(
	cfg *config.Config,
	t repository.Trader,
	quotes repository.QuoteSource,
	radar *usecase.Radar,
	sink repository.SignalSink,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Executor {
	if !cfg.Trading.Enabled {
		return nil
	}
	monitor := usecase.NewPositionMonitor(quotes, m, log,
		usecase.WithMonitorTimeout(cfg.Trading.MonitorTimeout))
	return usecase.NewExecutor(t, quotes, monitor, radar.Session(), radar, sink, log)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(log *applogger.Logger, radar *usecase.Radar, executor *usecase.Executor) *api.RadarHandler {
	return api.NewRadarHandler(log, radar, executor)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	radar *usecase.Radar,
	feed repository.CandleFeed,
	handler *api.RadarHandler,
	chClient *pkgch.Client,
	publisher repository.SignalPublisher,
) *server.App {
	return server.New(cfg, log, radar, feed, handler, chClient, publisher)
}
