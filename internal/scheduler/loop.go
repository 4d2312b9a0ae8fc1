package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/rs/zerolog"
)

// Fetcher returns recent posts of one account on one platform
type Fetcher interface {
	Platform() models.Platform
	// Available reports whether the platform has the credentials it needs
	Available() bool
	FetchRecent(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error)
}

// AccountStore is what a loop reads and writes besides updates
type AccountStore interface {
	GetActiveAccounts(ctx context.Context, platform models.Platform) ([]models.SocialAccount, error)
	TouchAccount(ctx context.Context, id uint, at time.Time) error
	LogEvent(ctx context.Context, e *models.MonitoringEvent) error
}

// Ingester runs one raw item through classification, storage and relay
type Ingester interface {
	Ingest(ctx context.Context, platform models.Platform, item models.RawItem) (controllers.Outcome, error)
}

// Loop polls every active account of one platform, batch after batch,
// until its context is cancelled
type Loop struct {
	fetcher        Fetcher
	store          AccountStore
	ingester       Ingester
	settings       config.PlatformConfig
	requestTimeout time.Duration
	idleBackoff    time.Duration
	metrics        *metrics.Metrics
	logger         zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewLoop creates the polling loop of the fetcher's platform
func NewLoop(
	fetcher Fetcher,
	store AccountStore,
	ingester Ingester,
	cfg *config.Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Loop {
	platform := fetcher.Platform()
	idle := cfg.IdleBackoff
	if idle <= 0 {
		idle = time.Minute
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loop{
		fetcher:        fetcher,
		store:          store,
		ingester:       ingester,
		settings:       cfg.Platforms[platform],
		requestTimeout: timeout,
		idleBackoff:    idle,
		metrics:        m,
		logger:         logger.With().Str("platform", string(platform)).Logger(),
		now:            time.Now,
		sleep:          sleepContext,
	}
}

// Platform returns the platform this loop polls
func (l *Loop) Platform() models.Platform {
	return l.fetcher.Platform()
}

// Run polls until ctx is cancelled. It never returns early on error.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info().Dur("interval", l.settings.Interval).Msg("Monitoring loop started")
	defer func() {
		l.logger.Info().Msg("Monitoring loop stopped")
	}()

	for ctx.Err() == nil {
		if !l.fetcher.Available() {
			l.logger.Debug().Dur("backoff", l.idleBackoff).Msg("Credentials missing, waiting")
			if !l.sleep(ctx, l.idleBackoff) {
				return
			}
			continue
		}

		started := l.now()
		polled, found, err := l.RunBatch(ctx)
		l.metrics.BatchDuration.WithLabelValues(string(l.Platform())).Observe(l.now().Sub(started).Seconds())
		if err != nil {
			l.metrics.BatchFailures.WithLabelValues(string(l.Platform())).Inc()
			l.logger.Error().Err(err).Msg("Monitoring batch failed")
			l.logEvent(ctx, &models.MonitoringEvent{
				Status:  models.EventStatusError,
				Message: err.Error(),
			})
			if !l.sleep(ctx, l.idleBackoff) {
				return
			}
			continue
		}

		l.logger.Info().Int("accounts", polled).Int("updates", found).Msg("Monitoring batch completed")
		l.logEvent(ctx, &models.MonitoringEvent{
			Status:       models.EventStatusSuccess,
			Message:      fmt.Sprintf("Monitored %d accounts", polled),
			UpdatesFound: found,
		})

		if !l.sleep(ctx, l.settings.Interval) {
			return
		}
	}
}

// RunBatch polls each active account once, in order. A failing account is
// logged and recorded but does not stop the batch. It returns the number of
// accounts polled successfully and the number of new updates stored.
func (l *Loop) RunBatch(ctx context.Context) (int, int, error) {
	accounts, err := l.store.GetActiveAccounts(ctx, l.Platform())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list active accounts: %w", err)
	}
	if len(accounts) == 0 {
		l.logger.Debug().Msg("No active accounts")
		return 0, 0, nil
	}

	polled, found := 0, 0
	for i := range accounts {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && !l.sleep(ctx, l.settings.AccountDelay) {
			break
		}

		account := &accounts[i]
		n, err := l.pollAccount(ctx, account)
		found += n
		if err != nil {
			l.metrics.AccountFailures.WithLabelValues(string(l.Platform())).Inc()
			l.logger.Error().Err(err).Str("account", account.Username).Msg("Failed to monitor account")
			l.logEvent(ctx, &models.MonitoringEvent{
				AccountName: account.Username,
				Status:      models.EventStatusError,
				Message:     err.Error(),
			})
			continue
		}
		polled++
	}

	return polled, found, nil
}

// pollAccount fetches and ingests the recent items of one account. Work that
// has started is allowed to finish after the loop is stopped.
func (l *Loop) pollAccount(ctx context.Context, account *models.SocialAccount) (found int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while monitoring %s: %v", account.Username, r)
		}
	}()

	work := context.WithoutCancel(ctx)
	platform := l.Platform()
	now := l.now()
	since := now.Add(-l.settings.RecencyWindow)

	fetchCtx, cancel := context.WithTimeout(work, l.requestTimeout)
	items, err := l.fetcher.FetchRecent(fetchCtx, account, since)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", account.Username, err)
	}
	l.metrics.ItemsFetched.WithLabelValues(string(platform)).Add(float64(len(items)))

	for _, item := range items {
		// Undated feed entries count as published at poll time
		if item.PublishedAt.IsZero() {
			item.PublishedAt = now
		}
		if l.settings.RecencyWindow > 0 && item.PublishedAt.Before(since) {
			l.metrics.ItemsStale.WithLabelValues(string(platform)).Inc()
			continue
		}
		if item.AccountName == "" {
			item.AccountName = account.Name
		}
		if item.AccountLanguage == "" {
			item.AccountLanguage = account.Language
		}

		outcome, err := l.ingester.Ingest(work, platform, item)
		if err != nil {
			return found, err
		}
		if outcome == controllers.OutcomeStored || outcome == controllers.OutcomeRelayed {
			found++
		}
	}

	if err := l.store.TouchAccount(work, account.ID, now); err != nil {
		l.logger.Warn().Err(err).Str("account", account.Username).Msg("Failed to update last checked time")
	}
	return found, nil
}

func (l *Loop) logEvent(ctx context.Context, e *models.MonitoringEvent) {
	e.Platform = l.Platform()
	if err := l.store.LogEvent(context.WithoutCancel(ctx), e); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to record monitoring event")
	}
}

// sleepContext waits for d and reports false if ctx ended first
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
