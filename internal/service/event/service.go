// Package event implements the transactional outbox pipeline. Mutations
// record events through Emit; a background processor publishes them to the
// broker, where the notification consumer picks them up.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/messaging"
	"github.com/leadrail/lead-api/pkg/metrics"
)

const (
	maxRetries  = 3
	retryDelay  = 5 * time.Second
	eventExpiry = 24 * time.Hour
	batchSize   = 100
)

type Service struct {
	outboxRepo repository.OutboxRepository
	broker     messaging.Broker
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewService(outboxRepo repository.OutboxRepository, broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		broker:     broker,
		logger:     log,
		metrics:    m,
	}
}

// Emit records the event in the outbox. The write shares the caller's
// transaction boundary through ctx; delivery happens asynchronously.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	// Try immediate delivery; the poller covers failures.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.processEvent(ctx, event); err != nil {
			s.handleProcessingError(ctx, event, err)
		}
	}()

	return nil
}

// ProcessPendingEvents drains one batch of pending and retryable events.
func (s *Service) ProcessPendingEvents(ctx context.Context) error {
	events, err := s.outboxRepo.GetPendingEvents(ctx, batchSize)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := s.processEvent(ctx, event); err != nil {
			s.handleProcessingError(ctx, event, err)
		}
	}
	return nil
}

func (s *Service) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	started := time.Now()

	if err := s.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := s.outboxRepo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	s.metrics.OutboxEventsProcessed.Inc()
	s.metrics.OutboxProcessingLatency.Observe(time.Since(started).Seconds())
	return nil
}

func (s *Service) handleProcessingError(ctx context.Context, event *model.OutboxEvent, err error) {
	s.metrics.OutboxEventsFailed.Inc()
	errMsg := err.Error()

	if event.RetryCount+1 >= maxRetries {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errMsg, nil); updateErr != nil {
			s.logger.Error(updateErr, "failed to mark event failed", "event_id", event.ID)
		}
		s.logger.Error(err, "event moved to failed after retries",
			"event_id", event.ID, "event_type", event.EventType)
		return
	}

	retryAt := time.Now().Add(retryDelay * time.Duration(event.RetryCount+1))
	if updateErr := s.outboxRepo.UpdateStatus(ctx, event.ID, model.OutboxStatusRetry, &errMsg, &retryAt); updateErr != nil {
		s.logger.Error(updateErr, "failed to schedule event retry", "event_id", event.ID)
	}
}

// CleanupProcessedEvents deletes processed events older than the expiry.
func (s *Service) CleanupProcessedEvents(ctx context.Context) error {
	count, err := s.outboxRepo.DeleteProcessedBefore(ctx, time.Now().Add(-eventExpiry))
	if err != nil {
		return fmt.Errorf("failed to cleanup events: %w", err)
	}
	if count > 0 {
		s.logger.Info("cleaned up processed events", "count", count)
	}
	return nil
}
