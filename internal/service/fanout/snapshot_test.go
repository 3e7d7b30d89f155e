package fanout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	apperrors "github.com/leadrail/lead-api/pkg/errors"
)

type fakeUserRepo struct {
	repository.UserRepository
	users      map[uuid.UUID]*model.User
	admin      *model.User
	agents     map[uuid.UUID][]*model.User
	getCalls   int
	adminCalls int
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	f.getCalls++
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (f *fakeUserRepo) GetAdmin(ctx context.Context) (*model.User, error) {
	f.adminCalls++
	return f.admin, nil
}

func (f *fakeUserRepo) ListAgents(ctx context.Context, supervisorID *uuid.UUID) ([]*model.User, error) {
	if supervisorID == nil {
		return nil, nil
	}
	return f.agents[*supervisorID], nil
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

func staffUser(name string, role model.Role) *model.User {
	u := &model.User{Name: name, Role: role}
	u.ID = uuid.New()
	return u
}

func TestSnapshotLoader_SubAdminTeam(t *testing.T) {
	admin := staffUser("Boss", model.RoleAdmin)
	actor := staffUser("Priya", model.RoleSubAdmin)
	agentA := staffUser("Ajay", model.RoleAgent)
	agentB := staffUser("Bina", model.RoleAgent)

	users := &fakeUserRepo{
		users:  map[uuid.UUID]*model.User{actor.ID: actor},
		admin:  admin,
		agents: map[uuid.UUID][]*model.User{actor.ID: {agentA, agentB}},
	}
	loader := NewSnapshotLoader(users, &fakeLeadRepo{})

	snap, err := loader.Load(context.Background(), Event{Kind: EventLeadCreated, ActorID: actor.ID})
	require.NoError(t, err)

	assert.Equal(t, actor.ID, snap.ActorID)
	assert.Equal(t, "Priya", snap.ActorName)
	assert.Equal(t, model.RoleSubAdmin, snap.ActorRole)
	require.NotNil(t, snap.AdminID)
	assert.Equal(t, admin.ID, *snap.AdminID)
	assert.ElementsMatch(t, []uuid.UUID{agentA.ID, agentB.ID}, snap.SupervisedAgents)
	assert.Nil(t, snap.LeadCreatedBy)
}

func TestSnapshotLoader_AgentCreationReachesOnlyActorAndAdmin(t *testing.T) {
	admin := staffUser("Boss", model.RoleAdmin)
	supervisor := staffUser("Priya", model.RoleSubAdmin)
	actor := staffUser("Ajay", model.RoleAgent)
	actor.SupervisorID = &supervisor.ID
	sibling := staffUser("Bina", model.RoleAgent)
	sibling.SupervisorID = &supervisor.ID

	users := &fakeUserRepo{
		users:  map[uuid.UUID]*model.User{actor.ID: actor},
		admin:  admin,
		agents: map[uuid.UUID][]*model.User{supervisor.ID: {actor, sibling}},
	}
	loader := NewSnapshotLoader(users, &fakeLeadRepo{})

	evt := Event{Kind: EventLeadCreated, ActorID: actor.ID, LeadName: "Acme Corp"}
	snap, err := loader.Load(context.Background(), evt)
	require.NoError(t, err)

	// An Agent supervises nobody; their team mates are not theirs to notify.
	assert.Empty(t, snap.SupervisedAgents)

	msgs := NewEngine().ComputeFanout(evt, snap)
	require.Len(t, msgs, 2)
	assert.Equal(t, actor.ID, msgs[0].RecipientID)
	assert.Equal(t, admin.ID, msgs[1].RecipientID)
	assert.NotContains(t, recipientIDs(msgs), sibling.ID)
}

func TestSnapshotLoader_AgentWithLead(t *testing.T) {
	supervisor := staffUser("Priya", model.RoleSubAdmin)
	actor := staffUser("Ajay", model.RoleAgent)
	actor.SupervisorID = &supervisor.ID

	creator := uuid.New()
	assignee := uuid.New()
	lead := &model.Lead{Name: "Acme Corp", CreatedBy: creator, AssignedTo: &assignee}
	lead.ID = uuid.New()

	users := &fakeUserRepo{
		users:  map[uuid.UUID]*model.User{actor.ID: actor},
		agents: map[uuid.UUID][]*model.User{},
	}
	loader := NewSnapshotLoader(users, &fakeLeadRepo{leads: map[uuid.UUID]*model.Lead{lead.ID: lead}})

	snap, err := loader.Load(context.Background(), Event{Kind: EventStatusChanged, ActorID: actor.ID, LeadID: lead.ID})
	require.NoError(t, err)

	assert.Equal(t, &supervisor.ID, snap.SupervisorID)
	assert.Nil(t, snap.AdminID)
	require.NotNil(t, snap.LeadCreatedBy)
	assert.Equal(t, creator, *snap.LeadCreatedBy)
	assert.Equal(t, &assignee, snap.LeadAssignedTo)
}

func TestSnapshotLoader_CachesLookups(t *testing.T) {
	actor := staffUser("Priya", model.RoleSubAdmin)
	users := &fakeUserRepo{
		users:  map[uuid.UUID]*model.User{actor.ID: actor},
		admin:  staffUser("Boss", model.RoleAdmin),
		agents: map[uuid.UUID][]*model.User{},
	}
	loader := NewSnapshotLoader(users, &fakeLeadRepo{})

	evt := Event{Kind: EventLeadCreated, ActorID: actor.ID}
	_, err := loader.Load(context.Background(), evt)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), evt)
	require.NoError(t, err)

	assert.Equal(t, 1, users.getCalls)
	assert.Equal(t, 1, users.adminCalls)
}

func TestSnapshotLoader_UnknownActorFails(t *testing.T) {
	loader := NewSnapshotLoader(&fakeUserRepo{users: map[uuid.UUID]*model.User{}}, &fakeLeadRepo{})

	_, err := loader.Load(context.Background(), Event{Kind: EventLeadCreated, ActorID: uuid.New()})
	assert.Error(t, err)
}
