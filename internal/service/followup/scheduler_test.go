package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("followup_test")

type fakeLeadRepo struct {
	repository.LeadRepository
	leads []*model.Lead
	err   error
}

func (f *fakeLeadRepo) ListWithFollowUp(ctx context.Context) ([]*model.Lead, error) {
	return f.leads, f.err
}

type fakeTriggerRepo struct {
	claims map[string]bool
	calls  []string
	err    error
}

func newFakeTriggerRepo() *fakeTriggerRepo {
	return &fakeTriggerRepo{claims: map[string]bool{}}
}

func (f *fakeTriggerRepo) ClaimOccurrence(ctx context.Context, leadID uuid.UUID, kind string, day time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := leadID.String() + "/" + kind + "/" + day.Format("2006-01-02")
	f.calls = append(f.calls, key)
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

type fakeNotifRepo struct {
	repository.NotificationRepository
	inserted []*model.Notification
	err      error
}

func (f *fakeNotifRepo) InsertMany(ctx context.Context, notifications []*model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, notifications...)
	return nil
}

type fakeAlerter struct {
	alerted []uuid.UUID
}

func (f *fakeAlerter) MissedFollowUp(ctx context.Context, lead *model.Lead) error {
	f.alerted = append(f.alerted, lead.ID)
	return nil
}

func newTestScheduler(leads *fakeLeadRepo, triggers *fakeTriggerRepo, notifs repository.NotificationRepository, alerter Alerter, now time.Time) *Scheduler {
	s := NewScheduler(SchedulerConfig{}, leads, triggers, notifs, alerter, logger.NewLogger(nil), testMetrics)
	s.now = func() time.Time { return now }
	return s
}

func dueLead(creator uuid.UUID, assignee *uuid.UUID, followUp time.Time) *model.Lead {
	l := pendingLead("Sunita Sharma", followUp)
	l.ID = uuid.New()
	l.CreatedBy = creator
	l.AssignedTo = assignee
	return l
}

func TestRunSweep_FiresMissedOnce(t *testing.T) {
	creator := uuid.New()
	assignee := uuid.New()
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	lead := dueLead(creator, &assignee, followUp)

	triggers := newFakeTriggerRepo()
	notifs := &fakeNotifRepo{}
	alerter := &fakeAlerter{}
	s := newTestScheduler(&fakeLeadRepo{leads: []*model.Lead{lead}}, triggers, notifs, alerter, at(followUp, 21, 5))

	s.RunSweep(context.Background())

	require.Len(t, notifs.inserted, 2)
	assert.Equal(t, creator, notifs.inserted[0].RecipientID)
	assert.Equal(t, assignee, notifs.inserted[1].RecipientID)
	assert.Equal(t, model.ColorRed, notifs.inserted[0].Color)
	assert.Equal(t, []uuid.UUID{lead.ID}, alerter.alerted)

	// The occurrence is claimed, so the next sweep within the window is a
	// no-op.
	s.RunSweep(context.Background())
	assert.Len(t, notifs.inserted, 2)
	assert.Len(t, alerter.alerted, 1)
}

func TestRunSweep_DeduplicatesCreatorAssignee(t *testing.T) {
	creator := uuid.New()
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	lead := dueLead(creator, &creator, followUp)

	notifs := &fakeNotifRepo{}
	s := newTestScheduler(&fakeLeadRepo{leads: []*model.Lead{lead}}, newFakeTriggerRepo(), notifs, nil, at(followUp.AddDate(0, 0, -1), 18, 0))

	s.RunSweep(context.Background())

	require.Len(t, notifs.inserted, 1)
	assert.Equal(t, creator, notifs.inserted[0].RecipientID)
	assert.Equal(t, model.ColorYellow, notifs.inserted[0].Color)
}

func TestRunSweep_LeadErrorsAreIsolated(t *testing.T) {
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	bad := dueLead(uuid.New(), nil, followUp)
	good := dueLead(uuid.New(), nil, followUp)

	triggers := newFakeTriggerRepo()
	// The first lead's insert fails, the second must still be delivered.
	failing := &failFirstNotifRepo{}
	s := newTestScheduler(&fakeLeadRepo{leads: []*model.Lead{bad, good}}, triggers, failing, nil, at(followUp, 21, 0))

	s.RunSweep(context.Background())

	require.Len(t, failing.inserted, 1)
	assert.Equal(t, good.CreatedBy, failing.inserted[0].RecipientID)
}

type failFirstNotifRepo struct {
	repository.NotificationRepository
	failed   bool
	inserted []*model.Notification
}

func (f *failFirstNotifRepo) InsertMany(ctx context.Context, notifications []*model.Notification) error {
	if !f.failed {
		f.failed = true
		return errors.New("insert failed")
	}
	f.inserted = append(f.inserted, notifications...)
	return nil
}

func TestRunSweep_SkipsWhenAlreadyRunning(t *testing.T) {
	s := newTestScheduler(&fakeLeadRepo{}, newFakeTriggerRepo(), &fakeNotifRepo{}, nil, time.Now())
	s.running.Store(true)

	// Must return immediately without touching the repos.
	s.RunSweep(context.Background())
	s.running.Store(false)
}
