//go:build wireinject
// +build wireinject

package di

import (
	"PolyRadar/pkg/config"
	"PolyRadar/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Market data clients
		ProvideRESTClient,
		ProvideCandleFeed,
		ProvideQuoteSource,
		ProvideMarketDirectory,

		// Engines
		ProvideIndicatorEngine,
		ProvideSignalEngine,

		// Infrastructure
		ProvideClickHouseClient,
		ProvideSignalSink,
		ProvideKafkaProducer,
		ProvideSignalPublisher,
		ProvideSnapshotStore,

		// Use cases
		ProvideRadar,
		ProvideTrader,
		ProvideExecutor,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
