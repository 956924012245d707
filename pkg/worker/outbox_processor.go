package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medisched/booking-api/internal/model"
	"github.com/medisched/booking-api/internal/repository"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/messaging"
	"github.com/medisched/booking-api/pkg/metrics"
)

type Config struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	Channel      string
	// Retention bounds how long processed events stay in the table.
	Retention time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:    100,
		PollInterval: 5 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		Channel:      "booking.events",
		Retention:    7 * 24 * time.Hour,
	}
}

// OutboxProcessor drains pending outbox events to the message broker.
// The repository hands out each event to exactly one claimant, so
// multiple workers can run side by side without double publishing.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config Config,
	logger *logger.Logger,
	m *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Channel == "" {
		config.Channel = "booking.events"
	}
	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

// Start blocks until ctx is cancelled, polling the outbox on a fixed
// interval and trimming processed events once an hour.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.logger.Info("outbox processor started",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor shutting down")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		case <-cleanup.C:
			if p.config.Retention <= 0 {
				continue
			}
			deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.Retention))
			if err != nil {
				p.logger.Error(err, "failed to trim processed events")
				continue
			}
			if deleted > 0 {
				p.logger.Info("trimmed processed events", "deleted", deleted)
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	var timer *prometheus.Timer
	if p.metrics != nil {
		timer = prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
		defer timer.ObserveDuration()
	}

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, evt := range events {
		if err := p.publishWithRetry(ctx, evt); err != nil {
			if p.metrics != nil {
				p.metrics.OutboxEventsFailed.Inc()
			}
			p.logger.Error(err, "failed to publish event after retries",
				"event_id", evt.ID.String(),
				"event_type", evt.EventType)

			if markErr := p.repo.MarkFailed(ctx, evt.ID, err.Error()); markErr != nil {
				p.logger.Error(markErr, "failed to mark event failed", "event_id", evt.ID.String())
			}
			continue
		}

		if err := p.repo.MarkProcessed(ctx, evt.ID); err != nil {
			p.logger.Error(err, "failed to mark event processed", "event_id", evt.ID.String())
			continue
		}
		if p.metrics != nil {
			p.metrics.OutboxEventsProcessed.Inc()
		}
	}

	return nil
}

func (p *OutboxProcessor) publishWithRetry(ctx context.Context, evt *model.OutboxEvent) error {
	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if p.metrics != nil {
				p.metrics.OutboxRetries.WithLabelValues(evt.EventType).Inc()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * p.config.RetryDelay):
			}
		}

		lastErr = p.broker.Publish(ctx, p.config.Channel, messaging.Message{
			Type:    evt.EventType,
			Payload: evt.Payload,
		})
		if lastErr == nil {
			return nil
		}

		p.logger.Warn("retrying event publish",
			"event_id", evt.ID.String(),
			"attempt", attempt+1)
	}
	return lastErr
}
