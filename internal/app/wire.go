//go:build wireinject
// +build wireinject

package app

import (
	"github.com/amaumene/reelwatch/internal/api"
	"github.com/amaumene/reelwatch/internal/api/handlers"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/scheduler"
	"github.com/amaumene/reelwatch/internal/services/telegram"
	"github.com/google/wire"
)

var providerSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	provideClassifier,
	provideMutedTerms,
	provideTracerProvider,
	metrics.New,
	telegram.NewSender,
	provideNotifier,
	controllers.NewNotificationPolicy,
	provideIngestController,
	controllers.NewQueryController,
	provideFetchers,
	provideLoops,
	provideScheduler,
	wire.Bind(new(handlers.MonitorControl), new(*scheduler.Scheduler)),
	handlers.NewUpdatesHandler,
	handlers.NewMonitoringHandler,
	provideAccountsHandler,
	provideRuntimeHandler,
	api.NewServer,
	newApp,
)

// Initialize builds the service graph from cfg
func Initialize(cfg *config.Config) (*App, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}
