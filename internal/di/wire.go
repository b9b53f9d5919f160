//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideResources,

		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideLocation,
		ProvideCache,
		ProvideMarketProvider,

		// Domain services
		ProvideDefaultCriteria,
		ProvidePlanParams,
		ProvideWeights,
		ProvideScreener,

		// Use cases
		ProvideSnapshotStore,
		ProvideScreenService,
		ProvideDetailService,
		ProvideSearchIndex,
		ProvideSignalPublisher,
		ProvideSignalNotifier,
		ProvideSnapshotHistory,
		ProvideHub,
		ProvideRefresher,

		// HTTP
		ProvideLimiter,
		ProvideAPIHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
