// Package app assembles the monitoring service from its components.
package app

import (
	"context"
	"fmt"

	"github.com/amaumene/reelwatch/internal/api"
	"github.com/amaumene/reelwatch/internal/api/handlers"
	"github.com/amaumene/reelwatch/internal/classifier"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/scheduler"
	"github.com/amaumene/reelwatch/internal/services/instagram"
	"github.com/amaumene/reelwatch/internal/services/news"
	"github.com/amaumene/reelwatch/internal/services/telegram"
	"github.com/amaumene/reelwatch/internal/services/twitter"
	"github.com/amaumene/reelwatch/internal/services/youtube"
	"github.com/amaumene/reelwatch/internal/utils"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// App holds the long-lived components of a running service
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	DB        *models.Database
	Scheduler *scheduler.Scheduler
	Server    *api.Server
}

func newApp(cfg *config.Config, logger zerolog.Logger, db *models.Database, sched *scheduler.Scheduler, server *api.Server) *App {
	return &App{Config: cfg, Logger: logger, DB: db, Scheduler: sched, Server: server}
}

func provideLogger(cfg *config.Config) zerolog.Logger {
	return utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

func provideDatabase(cfg *config.Config, logger zerolog.Logger) (*models.Database, func(), error) {
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info().Str("path", cfg.DatabaseFile).Msg("Database initialized")

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database")
		}
	}
	return db, cleanup, nil
}

func provideClassifier(cfg *config.Config, logger zerolog.Logger) (*classifier.Classifier, error) {
	rules := classifier.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := classifier.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load classifier rules: %w", err)
		}
		rules = loaded
		logger.Info().Str("path", cfg.RulesFile).Msg("Classifier rules loaded")
	}
	return classifier.New(rules)
}

func provideMutedTerms(cfg *config.Config, logger zerolog.Logger) *utils.MutedTerms {
	muted, err := utils.LoadMutedTerms(cfg.MutedTermsFile)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load muted terms, continuing without them")
		return utils.NewMutedTerms()
	}
	if muted.Len() > 0 {
		logger.Info().Int("count", muted.Len()).Msg("Muted terms loaded")
	}
	return muted
}

func provideTracerProvider(logger zerolog.Logger) (*sdktrace.TracerProvider, func()) {
	tp := utils.NewTracerProvider(logger)
	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to shut down tracer provider")
		}
	}
}

func provideNotifier(sender telegram.Sender) controllers.Notifier {
	return sender
}

func provideIngestController(
	db *models.Database,
	cls *classifier.Classifier,
	policy *controllers.NotificationPolicy,
	notifier controllers.Notifier,
	muted *utils.MutedTerms,
	m *metrics.Metrics,
	tp *sdktrace.TracerProvider,
	cfg *config.Config,
	logger zerolog.Logger,
) *controllers.IngestController {
	return controllers.NewIngestController(db, cls, policy, notifier, muted, m, tp, cfg.NotifyTimeout, logger)
}

// provideFetchers returns one client per platform in loop start order
func provideFetchers(cfg *config.Config, logger zerolog.Logger) []scheduler.Fetcher {
	return []scheduler.Fetcher{
		twitter.NewClient(cfg, logger),
		instagram.NewClient(cfg, logger),
		youtube.NewClient(cfg, logger),
		news.NewClient(cfg, logger),
	}
}

func provideLoops(
	fetchers []scheduler.Fetcher,
	db *models.Database,
	ingest *controllers.IngestController,
	cfg *config.Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) []*scheduler.Loop {
	loops := make([]*scheduler.Loop, 0, len(fetchers))
	for _, f := range fetchers {
		loops = append(loops, scheduler.NewLoop(f, db, ingest, cfg, m, logger))
	}
	return loops
}

func provideScheduler(loops []*scheduler.Loop, notifier controllers.Notifier, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(loops, notifier, cfg.NotifyTimeout, m, logger)
}

func provideAccountsHandler(db *models.Database, query *controllers.QueryController, logger zerolog.Logger) *handlers.AccountsHandler {
	return handlers.NewAccountsHandler(db, query.InvalidateStats, logger)
}

func provideRuntimeHandler(cfg *config.Config, muted *utils.MutedTerms) *handlers.RuntimeHandler {
	return handlers.NewRuntimeHandler(cfg, muted.Len())
}
