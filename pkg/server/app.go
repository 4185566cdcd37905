package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PolyRadar/internal/domain/repository"
	"PolyRadar/internal/usecase"
	pkgch "PolyRadar/pkg/clickhouse"
	"PolyRadar/pkg/config"
	xhttp "PolyRadar/pkg/http"
	applogger "PolyRadar/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	radar      *usecase.Radar
	feed       repository.CandleFeed
	handler    xhttp.Handler
	chClient   *pkgch.Client
	publisher  repository.SignalPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	radar *usecase.Radar,
	feed repository.CandleFeed,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	publisher repository.SignalPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		radar:     radar,
		feed:      feed,
		handler:   handler,
		chClient:  chClient,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if pub, ok := a.publisher.(applogger.Publisher); ok && pub != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "polyradar.logs",
			Publisher:      pub,
		})
		defer a.log.RemoveCollector()
	}

	if err := a.feed.Start(ctx); err != nil {
		a.log.Error("candle feed start error", applogger.Error(err))
		return err
	}
	a.log.Info("candle feed started", applogger.String("symbol", a.cfg.Radar.Symbol))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	radarErr := make(chan error, 1)
	go func() {
		radarErr <- a.radar.Run(ctx)
	}()
	a.log.Info("radar started",
		applogger.String("asset", a.cfg.Radar.Asset),
		applogger.Duration("window", a.cfg.Radar.Window))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		a.log.Info("shutdown signal received")
	case err := <-radarErr:
		if err != nil && err != context.Canceled {
			a.log.Error("radar stopped", applogger.Error(err))
		}
	}
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if err := a.feed.Close(); err != nil {
		a.log.Warn("candle feed close error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
