package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetAdmin returns the Admin, or (nil, nil) when none exists. Rules that
	// target the Admin tolerate a zero result.
	GetAdmin(ctx context.Context) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	ExistsByMobile(ctx context.Context, mobile string, exclude uuid.UUID) (bool, error)
	ListStaff(ctx context.Context) ([]*model.User, error)
	// ListAgents lists Agents, optionally restricted to one supervisor.
	ListAgents(ctx context.Context, supervisorID *uuid.UUID) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	Get(ctx context.Context, id uuid.UUID) (*model.Lead, error)
	ExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	ExistsByMobile(ctx context.Context, mobile string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error)
	Update(ctx context.Context, lead *model.Lead) error
	UpdateAssignment(ctx context.Context, leadID uuid.UUID, assignee *uuid.UUID, updatedBy uuid.UUID) error
	UpdateStatus(ctx context.Context, leadID uuid.UUID, status model.LeadStatus, updatedBy uuid.UUID) error
	UpdatePriority(ctx context.Context, leadID uuid.UUID, priority model.LeadPriority) error
	SetNextFollowUp(ctx context.Context, leadID uuid.UUID, at time.Time, setBy uuid.UUID) error
	InsertMany(ctx context.Context, leads []*model.Lead) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	// ListWithFollowUp returns every lead carrying a follow-up date,
	// regardless of status; the sweep decides which trigger applies.
	ListWithFollowUp(ctx context.Context) ([]*model.Lead, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	// GetByLeadID returns (nil, nil) when the lead has no customer record.
	GetByLeadID(ctx context.Context, leadID uuid.UUID) (*model.Customer, error)
	DeleteByLeadID(ctx context.Context, leadID uuid.UUID) error
}

type SettingRepository interface {
	// FindByTitleAndType returns (nil, nil) when no such setting exists.
	FindByTitleAndType(ctx context.Context, title, settingType string) (*model.Setting, error)
}

type NotificationRepository interface {
	InsertMany(ctx context.Context, notifications []*model.Notification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, p model.Pagination) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}

// TriggerRepository persists fired markers for follow-up trigger
// occurrences, keyed by (lead, trigger kind, calendar day).
type TriggerRepository interface {
	// ClaimOccurrence records the occurrence and reports whether this caller
	// won the claim. A false result means the trigger already fired.
	ClaimOccurrence(ctx context.Context, leadID uuid.UUID, kind string, day time.Time) (bool, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
