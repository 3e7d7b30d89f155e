package followup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/metrics"
)

// Alerter escalates missed follow-ups outside the in-app notification
// stream, typically by email to the Admin.
type Alerter interface {
	MissedFollowUp(ctx context.Context, lead *model.Lead) error
}

// SchedulerConfig holds the sweep cadence and per-lead budget.
type SchedulerConfig struct {
	// Spec is the cron expression for the sweep. Defaults to hourly on the
	// hour.
	Spec string
	// LeadTimeout bounds the work done for a single lead.
	LeadTimeout time.Duration
}

// Scheduler runs the hourly follow-up sweep. Each sweep scans every lead
// carrying a follow-up date, evaluates the due triggers and fires each
// occurrence at most once via the trigger claim table.
type Scheduler struct {
	cron        *cron.Cron
	leadRepo    repository.LeadRepository
	triggerRepo repository.TriggerRepository
	notifRepo   repository.NotificationRepository
	alerter     Alerter
	logger      *logger.Logger
	metrics     *metrics.Metrics
	spec        string
	leadTimeout time.Duration
	running     atomic.Bool
	now         func() time.Time
}

func NewScheduler(
	cfg SchedulerConfig,
	leadRepo repository.LeadRepository,
	triggerRepo repository.TriggerRepository,
	notifRepo repository.NotificationRepository,
	alerter Alerter,
	log *logger.Logger,
	m *metrics.Metrics,
) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "0 * * * *"
	}
	if cfg.LeadTimeout <= 0 {
		cfg.LeadTimeout = 10 * time.Second
	}
	return &Scheduler{
		cron:        cron.New(),
		leadRepo:    leadRepo,
		triggerRepo: triggerRepo,
		notifRepo:   notifRepo,
		alerter:     alerter,
		logger:      log,
		metrics:     m,
		spec:        cfg.Spec,
		leadTimeout: cfg.LeadTimeout,
		now:         time.Now,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunSweep(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("follow-up scheduler started", "spec", s.spec)
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("follow-up scheduler stopped")
}

// RunSweep executes one sweep. Overlapping runs are skipped rather than
// queued; an hourly cadence makes a skipped tick harmless because due
// triggers stay due until claimed.
func (s *Scheduler) RunSweep(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.SweepsSkipped.Inc()
		s.logger.Warn("sweep still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	s.metrics.SweepsStarted.Inc()
	started := s.now()
	defer func() {
		s.metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	leads, err := s.leadRepo.ListWithFollowUp(ctx)
	if err != nil {
		s.logger.Error(err, "sweep failed to list leads")
		return
	}

	fired := 0
	for _, lead := range leads {
		if err := s.sweepLead(ctx, lead, started, &fired); err != nil {
			s.metrics.SweepLeadErrors.Inc()
			s.logger.Error(err, "sweep failed for lead", "lead_id", lead.ID)
		}
	}

	s.logger.Info("sweep finished",
		"leads", len(leads),
		"triggers_fired", fired,
		"duration", time.Since(started).String(),
	)
}

func (s *Scheduler) sweepLead(ctx context.Context, lead *model.Lead, now time.Time, fired *int) error {
	ctx, cancel := context.WithTimeout(ctx, s.leadTimeout)
	defer cancel()

	for _, trg := range EvaluateTriggers(lead, now) {
		claimed, err := s.triggerRepo.ClaimOccurrence(ctx, lead.ID, string(trg.Kind), trg.Day)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		if err := s.fire(ctx, lead, trg); err != nil {
			return err
		}
		s.metrics.TriggersFired.WithLabelValues(string(trg.Kind)).Inc()
		*fired++
	}
	return nil
}

// fire delivers one claimed trigger to the lead's creator and assignee.
func (s *Scheduler) fire(ctx context.Context, lead *model.Lead, trg Trigger) error {
	recipients := []uuid.UUID{lead.CreatedBy}
	if lead.AssignedTo != nil && *lead.AssignedTo != lead.CreatedBy {
		recipients = append(recipients, *lead.AssignedTo)
	}

	notifications := make([]*model.Notification, 0, len(recipients))
	for _, r := range recipients {
		notifications = append(notifications, &model.Notification{
			RecipientID: r,
			Title:       trg.Title,
			Message:     trg.Message,
			Color:       trg.Color,
		})
	}

	if err := s.notifRepo.InsertMany(ctx, notifications); err != nil {
		s.metrics.NotificationsFailed.Inc()
		return err
	}
	s.metrics.NotificationsInserted.Add(float64(len(notifications)))

	// A missed follow-up also goes to the Admin by email. Delivery trouble
	// there must not fail the already-claimed occurrence.
	if trg.Kind == TriggerMissed && s.alerter != nil {
		if err := s.alerter.MissedFollowUp(ctx, lead); err != nil {
			s.logger.Error(err, "missed follow-up alert failed", "lead_id", lead.ID)
		}
	}
	return nil
}
