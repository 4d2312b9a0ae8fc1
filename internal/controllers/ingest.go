package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/reelwatch/internal/classifier"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/utils"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UpdateStore is the write side of the update table
type UpdateStore interface {
	SaveUpdate(ctx context.Context, u *models.MovieUpdate) (bool, error)
	MarkRelayed(ctx context.Context, id uint) error
}

// Notifier delivers rendered notifications
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
	Enabled() bool
}

// Outcome is what happened to one raw item
type Outcome string

const (
	OutcomeMuted     Outcome = "muted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStored    Outcome = "stored"
	OutcomeRelayed   Outcome = "relayed"
)

// IngestController classifies raw items, stores new ones and relays the noteworthy
type IngestController struct {
	store         UpdateStore
	classifier    *classifier.Classifier
	policy        *NotificationPolicy
	notifier      Notifier
	muted         *utils.MutedTerms
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	notifyTimeout time.Duration
	logger        zerolog.Logger
}

// NewIngestController creates a new ingest controller
func NewIngestController(
	store UpdateStore,
	cls *classifier.Classifier,
	policy *NotificationPolicy,
	notifier Notifier,
	muted *utils.MutedTerms,
	m *metrics.Metrics,
	tracerProvider trace.TracerProvider,
	notifyTimeout time.Duration,
	logger zerolog.Logger,
) *IngestController {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &IngestController{
		store:         store,
		classifier:    cls,
		policy:        policy,
		notifier:      notifier,
		muted:         muted,
		metrics:       m,
		tracer:        tracerProvider.Tracer("github.com/amaumene/reelwatch/internal/controllers"),
		notifyTimeout: notifyTimeout,
		logger:        logger.With().Str("component", "ingest").Logger(),
	}
}

// Ingest runs one raw item through mute check, classification, the dedup
// gate and the relay policy. Only store failures are returned; relay
// failures are logged and leave the stored record in place.
func (c *IngestController) Ingest(ctx context.Context, platform models.Platform, item models.RawItem) (Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "ingest", trace.WithAttributes(
		attribute.String("platform", string(platform)),
		attribute.String("content_id", item.ContentID),
	))
	defer span.End()

	text := item.ClassificationText()
	if muted, term := c.muted.Match(text); muted {
		c.metrics.ItemsMuted.WithLabelValues(string(platform)).Inc()
		c.logger.Debug().
			Str("platform", string(platform)).
			Str("content_id", item.ContentID).
			Str("term", term).
			Msg("Item muted")
		span.SetAttributes(attribute.String("outcome", string(OutcomeMuted)))
		return OutcomeMuted, nil
	}

	annotation := c.classifier.Classify(text, item.AccountLanguage)
	record := buildRecord(platform, item, annotation)

	inserted, err := c.store.SaveUpdate(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return "", fmt.Errorf("failed to store %s item %s: %w", platform, item.ContentID, err)
	}
	if !inserted {
		c.metrics.Duplicates.WithLabelValues(string(platform)).Inc()
		span.SetAttributes(attribute.String("outcome", string(OutcomeDuplicate)))
		return OutcomeDuplicate, nil
	}

	c.metrics.UpdatesSaved.WithLabelValues(string(platform), string(record.UpdateType)).Inc()
	c.logger.Info().
		Str("platform", string(platform)).
		Str("account", record.AccountName).
		Str("update_type", string(record.UpdateType)).
		Str("movie", record.MovieName).
		Uint("update_id", record.ID).
		Msg("New update stored")

	outcome := c.relay(ctx, annotation, record, item.MediaURL)
	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("update_type", string(record.UpdateType)),
	)
	return outcome, nil
}

// relay sends the notification for a freshly stored record when the policy
// asks for it and marks the record relayed on success
func (c *IngestController) relay(ctx context.Context, a classifier.Annotation, record *models.MovieUpdate, mediaURL string) Outcome {
	if !c.policy.ShouldNotify(a, record.EngagementCount, record.Platform) {
		return OutcomeStored
	}
	if !c.notifier.Enabled() {
		c.logger.Debug().Uint("update_id", record.ID).Msg("Relay disabled, skipping notification")
		return OutcomeStored
	}

	n := c.policy.Render(a, record, mediaURL)

	sendCtx, cancel := context.WithTimeout(ctx, c.notifyTimeout)
	defer cancel()
	if err := c.notifier.Send(sendCtx, n); err != nil {
		c.metrics.Notifications.WithLabelValues(string(record.Platform), "failed").Inc()
		c.logger.Warn().Err(err).Uint("update_id", record.ID).Msg("Failed to send notification")
		return OutcomeStored
	}
	c.metrics.Notifications.WithLabelValues(string(record.Platform), "sent").Inc()

	if err := c.store.MarkRelayed(ctx, record.ID); err != nil {
		c.logger.Warn().Err(err).Uint("update_id", record.ID).Msg("Failed to mark update relayed")
	}
	record.Relayed = true
	return OutcomeRelayed
}

func buildRecord(platform models.Platform, item models.RawItem, a classifier.Annotation) *models.MovieUpdate {
	title := item.Headline
	if title == "" {
		switch platform {
		case models.PlatformTwitter:
			title = "Tweet by " + item.AccountName
		case models.PlatformInstagram:
			title = "Instagram post by " + item.AccountName
		default:
			title = "Update from " + item.AccountName
		}
	}

	engagement := item.Engagement
	if engagement < 0 {
		engagement = 0
	}

	return &models.MovieUpdate{
		Platform:        platform,
		ContentID:       item.ContentID,
		AccountName:     item.AccountName,
		Title:           title,
		Body:            item.Text,
		URL:             item.URL,
		Language:        a.Language,
		MovieName:       a.MovieName,
		ActorName:       a.ActorName,
		DirectorName:    a.DirectorName,
		ProductionHouse: a.ProductionHouse,
		UpdateType:      a.UpdateType,
		EngagementCount: engagement,
	}
}
