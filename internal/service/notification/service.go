// Package notification consumes lead events off the broker, runs them
// through the fanout engine and persists the resulting records.
package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/internal/service/fanout"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/messaging"
	"github.com/leadrail/lead-api/pkg/metrics"
)

var consumedKinds = []fanout.EventKind{
	fanout.EventLeadCreated,
	fanout.EventLeadAssigned,
	fanout.EventStatusChanged,
	fanout.EventFollowUpSet,
	fanout.EventBulkImported,
}

type Service struct {
	repo     repository.NotificationRepository
	engine   *fanout.Engine
	snapshot *fanout.SnapshotLoader
	broker   messaging.Broker
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	repo repository.NotificationRepository,
	engine *fanout.Engine,
	snapshot *fanout.SnapshotLoader,
	broker messaging.Broker,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		snapshot: snapshot,
		broker:   broker,
		logger:   log,
		metrics:  m,
	}
}

// Start subscribes to every lead event channel and consumes until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) error {
	for _, kind := range consumedKinds {
		ch, err := s.broker.Subscribe(ctx, string(kind))
		if err != nil {
			return err
		}
		go s.consume(ctx, string(kind), ch)
	}
	return nil
}

func (s *Service) consume(ctx context.Context, channel string, ch <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := s.HandleEventPayload(ctx, payload); err != nil {
				s.logger.Error(err, "failed to handle event", "channel", channel)
			}
		}
	}
}

// HandleEventPayload decodes one event and fans it out.
func (s *Service) HandleEventPayload(ctx context.Context, payload []byte) error {
	var evt fanout.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	return s.HandleEvent(ctx, evt)
}

func (s *Service) HandleEvent(ctx context.Context, evt fanout.Event) error {
	snap, err := s.snapshot.Load(ctx, evt)
	if err != nil {
		return err
	}

	msgs := s.engine.ComputeFanout(evt, snap)
	s.metrics.FanoutEventsComputed.WithLabelValues(string(evt.Kind)).Inc()
	s.metrics.FanoutRecipients.Observe(float64(len(msgs)))
	if len(msgs) == 0 {
		return nil
	}

	notifications := make([]*model.Notification, 0, len(msgs))
	for _, m := range msgs {
		notifications = append(notifications, &model.Notification{
			RecipientID: m.RecipientID,
			Title:       m.Title,
			Message:     m.Body,
			Color:       m.Color,
		})
	}

	if err := s.repo.InsertMany(ctx, notifications); err != nil {
		s.metrics.NotificationsFailed.Inc()
		return err
	}
	s.metrics.NotificationsInserted.Add(float64(len(notifications)))
	return nil
}

func (s *Service) ListForRecipient(ctx context.Context, recipientID uuid.UUID, p model.Pagination) ([]*model.Notification, error) {
	return s.repo.ListForRecipient(ctx, recipientID, p)
}

func (s *Service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}
