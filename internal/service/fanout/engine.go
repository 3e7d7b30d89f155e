package fanout

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/model"
)

// Message is one recipient-specific notification produced by the engine.
type Message struct {
	RecipientID uuid.UUID
	Title       string
	Body        string
	Color       string
}

// Snapshot is a read-only view of the role hierarchy around one event.
// Any pointer may be nil when the corresponding lookup found nothing; the
// engine skips the affected rule instead of failing.
type Snapshot struct {
	ActorID          uuid.UUID
	ActorName        string
	ActorRole        model.Role
	AdminID          *uuid.UUID
	SupervisorID     *uuid.UUID
	SupervisedAgents []uuid.UUID
	LeadCreatedBy    *uuid.UUID
	LeadAssignedTo   *uuid.UUID
}

// Engine expands one business event into a deduplicated, ordered recipient
// list. It performs no I/O; persistence belongs to the caller.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

const followUpDateLayout = "02 Jan 2006"

// ComputeFanout applies the per-kind recipient rules in order: actor, Admin,
// supervised agents (creation and bulk import), then for lead-level events
// the lead's creator, the lead's assignee and the actor's supervisor. A
// recipient qualifying under several rules is emitted once, under the first.
func (e *Engine) ComputeFanout(evt Event, snap Snapshot) []Message {
	b := newBatch()

	b.add(snap.ActorID, evt, actorMessage(evt))

	if snap.AdminID != nil {
		b.add(*snap.AdminID, evt, adminMessage(evt, snap.ActorName))
	}

	switch evt.Kind {
	case EventLeadCreated, EventBulkImported:
		if snap.ActorRole != model.RoleAdmin {
			agents := append([]uuid.UUID(nil), snap.SupervisedAgents...)
			sort.Slice(agents, func(i, j int) bool {
				return agents[i].String() < agents[j].String()
			})
			for _, agent := range agents {
				b.add(agent, evt, teamMessage(evt, snap.ActorName))
			}
		}
	case EventLeadAssigned, EventStatusChanged, EventFollowUpSet:
		if snap.LeadCreatedBy != nil {
			b.add(*snap.LeadCreatedBy, evt, ownerMessage(evt))
		}
		if snap.LeadAssignedTo != nil {
			b.add(*snap.LeadAssignedTo, evt, ownerMessage(evt))
		}
		if snap.ActorRole == model.RoleAgent && snap.SupervisorID != nil {
			b.add(*snap.SupervisorID, evt, supervisorMessage(evt))
		}
	}

	return b.messages
}

// batch keeps insertion order while suppressing duplicate recipients. The
// actor is always added first, so a later rule resolving to the actor is
// dropped here as a plain duplicate.
type batch struct {
	seen     map[uuid.UUID]struct{}
	messages []Message
}

func newBatch() *batch {
	return &batch{
		seen:     map[uuid.UUID]struct{}{},
		messages: []Message{},
	}
}

func (b *batch) add(recipient uuid.UUID, evt Event, body string) {
	if recipient == uuid.Nil {
		return
	}
	if _, dup := b.seen[recipient]; dup {
		return
	}
	b.seen[recipient] = struct{}{}
	b.messages = append(b.messages, Message{
		RecipientID: recipient,
		Title:       titleFor(evt.Kind),
		Body:        body,
		Color:       model.ColorGray,
	})
}

func titleFor(kind EventKind) string {
	switch kind {
	case EventLeadCreated:
		return "Lead Created"
	case EventLeadAssigned:
		return "Lead Assigned"
	case EventStatusChanged:
		return "Lead Status Updated"
	case EventFollowUpSet:
		return "Next Follow-up Set"
	case EventBulkImported:
		return "Bulk Leads Uploaded"
	}
	return "Lead Update"
}

func actorMessage(evt Event) string {
	switch evt.Kind {
	case EventLeadCreated:
		return fmt.Sprintf("You created a new lead: %s", evt.LeadName)
	case EventLeadAssigned:
		return fmt.Sprintf("You assigned lead %s to %s", evt.LeadName, evt.AssigneeName)
	case EventStatusChanged:
		return fmt.Sprintf("You updated status of %s to %s", evt.LeadName, evt.NewStatus)
	case EventFollowUpSet:
		return fmt.Sprintf("You set next follow-up for %s on %s", evt.LeadName, evt.FollowUpAt.Format(followUpDateLayout))
	case EventBulkImported:
		return fmt.Sprintf("You uploaded %d bulk leads", evt.Count)
	}
	return ""
}

func adminMessage(evt Event, actorName string) string {
	switch evt.Kind {
	case EventLeadCreated:
		return fmt.Sprintf("A new lead %s was created by %s", evt.LeadName, actorName)
	case EventLeadAssigned:
		return fmt.Sprintf("Lead %s was assigned to %s by %s", evt.LeadName, evt.AssigneeName, actorName)
	case EventStatusChanged:
		return fmt.Sprintf("Status of %s updated to %s by %s", evt.LeadName, evt.NewStatus, actorName)
	case EventFollowUpSet:
		return fmt.Sprintf("Next follow-up for %s set on %s by %s", evt.LeadName, evt.FollowUpAt.Format(followUpDateLayout), actorName)
	case EventBulkImported:
		return fmt.Sprintf("%s uploaded %d new leads", actorName, evt.Count)
	}
	return ""
}

func teamMessage(evt Event, actorName string) string {
	switch evt.Kind {
	case EventLeadCreated:
		return fmt.Sprintf("A new lead %s was created by your staff", evt.LeadName)
	case EventBulkImported:
		return fmt.Sprintf("%s uploaded %d new leads", actorName, evt.Count)
	}
	return ""
}

func ownerMessage(evt Event) string {
	switch evt.Kind {
	case EventLeadAssigned:
		return fmt.Sprintf("Lead %s was assigned to %s", evt.LeadName, evt.AssigneeName)
	case EventStatusChanged:
		return fmt.Sprintf("Status of %s updated to %s", evt.LeadName, evt.NewStatus)
	case EventFollowUpSet:
		return fmt.Sprintf("Next follow-up for %s set on %s", evt.LeadName, evt.FollowUpAt.Format(followUpDateLayout))
	}
	return ""
}

func supervisorMessage(evt Event) string {
	switch evt.Kind {
	case EventLeadAssigned:
		return fmt.Sprintf("Lead %s was assigned to %s by your agent", evt.LeadName, evt.AssigneeName)
	case EventStatusChanged:
		return fmt.Sprintf("Status of %s updated to %s by your agent", evt.LeadName, evt.NewStatus)
	case EventFollowUpSet:
		return fmt.Sprintf("Next follow-up for %s set on %s by your agent", evt.LeadName, evt.FollowUpAt.Format(followUpDateLayout))
	}
	return ""
}
