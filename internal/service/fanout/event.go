package fanout

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventLeadCreated   EventKind = "lead_created"
	EventLeadAssigned  EventKind = "lead_assigned"
	EventStatusChanged EventKind = "lead_status_changed"
	EventFollowUpSet   EventKind = "lead_followup_set"
	EventBulkImported  EventKind = "leads_bulk_imported"
)

// Event is a business event emitted after a lead mutation commits. It is
// serialized into the outbox and consumed by the fanout engine.
type Event struct {
	Kind         EventKind  `json:"kind"`
	ActorID      uuid.UUID  `json:"actor_id"`
	LeadID       uuid.UUID  `json:"lead_id,omitempty"`
	LeadName     string     `json:"lead_name,omitempty"`
	NewStatus    string     `json:"new_status,omitempty"`
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	FollowUpAt   *time.Time `json:"follow_up_at,omitempty"`
	Count        int        `json:"count,omitempty"`
}
