package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/internal/service/fanout"
	apperrors "github.com/leadrail/lead-api/pkg/errors"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("notification_test")

type fakeNotifRepo struct {
	repository.NotificationRepository
	inserted []*model.Notification
}

func (f *fakeNotifRepo) InsertMany(ctx context.Context, notifications []*model.Notification) error {
	f.inserted = append(f.inserted, notifications...)
	return nil
}

type fakeUserRepo struct {
	repository.UserRepository
	users map[uuid.UUID]*model.User
	admin *model.User
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (f *fakeUserRepo) GetAdmin(ctx context.Context) (*model.User, error) {
	return f.admin, nil
}

func (f *fakeUserRepo) ListAgents(ctx context.Context, supervisorID *uuid.UUID) ([]*model.User, error) {
	return nil, nil
}

type fakeLeadRepo struct {
	repository.LeadRepository
	leads map[uuid.UUID]*model.Lead
}

func (f *fakeLeadRepo) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return nil, apperrors.NotFound("lead", nil)
	}
	return l, nil
}

func TestHandleEventPayload_PersistsFanout(t *testing.T) {
	admin := &model.User{Name: "Boss", Role: model.RoleAdmin}
	admin.ID = uuid.New()
	actor := &model.User{Name: "Priya", Role: model.RoleSubAdmin}
	actor.ID = uuid.New()

	lead := &model.Lead{Name: "Acme Corp", CreatedBy: actor.ID}
	lead.ID = uuid.New()

	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{actor.ID: actor}, admin: admin}
	leads := &fakeLeadRepo{leads: map[uuid.UUID]*model.Lead{lead.ID: lead}}
	repo := &fakeNotifRepo{}

	svc := NewService(repo, fanout.NewEngine(), fanout.NewSnapshotLoader(users, leads), nil, logger.NewLogger(nil), testMetrics)

	evt := fanout.Event{
		Kind:      fanout.EventStatusChanged,
		ActorID:   actor.ID,
		LeadID:    lead.ID,
		LeadName:  lead.Name,
		NewStatus: "walkin",
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	require.NoError(t, svc.HandleEventPayload(context.Background(), payload))

	// Actor first person, Admin third person, creator equals actor so no
	// third record.
	require.Len(t, repo.inserted, 2)
	assert.Equal(t, actor.ID, repo.inserted[0].RecipientID)
	assert.Equal(t, "You updated status of Acme Corp to walkin", repo.inserted[0].Message)
	assert.Equal(t, admin.ID, repo.inserted[1].RecipientID)
	assert.Equal(t, "Status of Acme Corp updated to walkin by Priya", repo.inserted[1].Message)
	assert.Equal(t, "Lead Status Updated", repo.inserted[0].Title)
	assert.Equal(t, model.ColorGray, repo.inserted[0].Color)
}

func TestHandleEventPayload_BadPayload(t *testing.T) {
	svc := NewService(&fakeNotifRepo{}, fanout.NewEngine(), fanout.NewSnapshotLoader(&fakeUserRepo{}, &fakeLeadRepo{}), nil, logger.NewLogger(nil), testMetrics)

	assert.Error(t, svc.HandleEventPayload(context.Background(), []byte("not json")))
}
