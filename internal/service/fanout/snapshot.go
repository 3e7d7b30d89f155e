package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
)

const (
	snapshotCacheTTL     = 30 * time.Second
	snapshotCacheCleanup = 5 * time.Minute
)

// SnapshotLoader assembles the hierarchy Snapshot the engine needs for one
// event. User and Admin lookups are cached briefly; the hierarchy changes
// rarely compared to event volume.
type SnapshotLoader struct {
	users repository.UserRepository
	leads repository.LeadRepository
	cache *cache.Cache
}

func NewSnapshotLoader(users repository.UserRepository, leads repository.LeadRepository) *SnapshotLoader {
	return &SnapshotLoader{
		users: users,
		leads: leads,
		cache: cache.New(snapshotCacheTTL, snapshotCacheCleanup),
	}
}

// Load builds the Snapshot for the event's actor and lead. Optional parts
// of the hierarchy that resolve to nothing stay nil; the engine degrades
// per rule instead of failing the whole fanout.
func (l *SnapshotLoader) Load(ctx context.Context, evt Event) (Snapshot, error) {
	actor, err := l.getUser(ctx, evt.ActorID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load actor: %w", err)
	}
	if actor == nil {
		return Snapshot{}, fmt.Errorf("actor %s not found", evt.ActorID)
	}

	snap := Snapshot{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
	}

	admin, err := l.getAdmin(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin != nil {
		snap.AdminID = &admin.ID
	}

	switch actor.Role {
	case model.RoleSubAdmin:
		agents, err := l.users.ListAgents(ctx, &actor.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load supervised agents: %w", err)
		}
		snap.SupervisedAgents = agentIDs(agents)
	case model.RoleAgent:
		// An Agent supervises nobody, so the team rule resolves to the
		// empty set. Only the escalation target is carried.
		snap.SupervisorID = actor.SupervisorID
	}

	if evt.LeadID != uuid.Nil {
		lead, err := l.leads.Get(ctx, evt.LeadID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load lead: %w", err)
		}
		snap.LeadCreatedBy = &lead.CreatedBy
		snap.LeadAssignedTo = lead.AssignedTo
	}

	return snap, nil
}

func (l *SnapshotLoader) getUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := "user:" + id.String()
	if cached, ok := l.cache.Get(key); ok {
		return cached.(*model.User), nil
	}
	user, err := l.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, user, cache.DefaultExpiration)
	return user, nil
}

func (l *SnapshotLoader) getAdmin(ctx context.Context) (*model.User, error) {
	const key = "admin"
	if cached, ok := l.cache.Get(key); ok {
		return cached.(*model.User), nil
	}
	admin, err := l.users.GetAdmin(ctx)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, admin, cache.DefaultExpiration)
	return admin, nil
}

func agentIDs(agents []*model.User) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID)
	}
	return ids
}
