// Package worker runs background processing loops.
package worker

import (
	"context"
	"time"

	"github.com/leadrail/lead-api/pkg/logger"
)

// Processor drains the outbox. Implemented by the event service.
type Processor interface {
	ProcessPendingEvents(ctx context.Context) error
	CleanupProcessedEvents(ctx context.Context) error
}

type OutboxProcessorConfig struct {
	PollInterval    time.Duration
	CleanupInterval time.Duration
}

type OutboxProcessor struct {
	processor Processor
	config    OutboxProcessorConfig
	logger    *logger.Logger
}

func NewOutboxProcessor(processor Processor, config OutboxProcessorConfig, log *logger.Logger) *OutboxProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}
	return &OutboxProcessor{
		processor: processor,
		config:    config,
		logger:    log,
	}
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	p.logger.Info("outbox processor started", "poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor shutting down")
			return
		case <-poll.C:
			if err := p.processor.ProcessPendingEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process pending events")
			}
		case <-cleanup.C:
			if err := p.processor.CleanupProcessedEvents(ctx); err != nil {
				p.logger.Error(err, "failed to cleanup processed events")
			}
		}
	}
}
