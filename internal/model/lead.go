package model

import (
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusOpen        LeadStatus = "open"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusWalkin      LeadStatus = "walkin"
	LeadStatusPaused      LeadStatus = "paused"
	LeadStatusRejected    LeadStatus = "rejected"
	LeadStatusUnavailable LeadStatus = "unavailable"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusOpen, LeadStatusConverted, LeadStatusWalkin,
		LeadStatusPaused, LeadStatusRejected, LeadStatusUnavailable:
		return true
	}
	return false
}

// Pending reports whether the lead still awaits its follow-up.
func (s LeadStatus) Pending() bool {
	return s == LeadStatusNew || s == LeadStatusOpen
}

type LeadPriority string

const (
	LeadPriorityHot         LeadPriority = "hot"
	LeadPriorityWarm        LeadPriority = "warm"
	LeadPriorityCold        LeadPriority = "cold"
	LeadPriorityNotAssigned LeadPriority = "Not Assigned"
)

func (p LeadPriority) Valid() bool {
	switch p {
	case LeadPriorityHot, LeadPriorityWarm, LeadPriorityCold, LeadPriorityNotAssigned:
		return true
	}
	return false
}

// Lead is a prospective customer progressing through the status pipeline.
// AssignedTo is set iff the lead has been explicitly assigned to a staff
// member; unassignment clears it. FormValues maps a lead-form field id to
// its value and is upserted per key, never positionally.
type Lead struct {
	Base
	Name              string       `json:"name" db:"name"`
	Email             *string      `json:"email" db:"email"`
	Mobile            string       `json:"mobile" db:"mobile"`
	Whatsapp          *string      `json:"whatsapp" db:"whatsapp"`
	Location          *string      `json:"location" db:"location"`
	InterestedProduct *string      `json:"interested_product" db:"interested_product"`
	LeadValue         int64        `json:"lead_value" db:"lead_value"`
	SourceID          *uuid.UUID   `json:"source_id" db:"source_id"`
	Status            LeadStatus   `json:"status" db:"status"`
	Priority          LeadPriority `json:"priority" db:"priority"`
	CreatedBy         uuid.UUID    `json:"created_by" db:"created_by"`
	UpdatedBy         *uuid.UUID   `json:"updated_by" db:"updated_by"`
	AssignedTo        *uuid.UUID   `json:"assigned_to" db:"assigned_to"`
	NextFollowUp      *time.Time   `json:"next_follow_up" db:"next_follow_up"`
	NextFollowUpSetBy *uuid.UUID   `json:"next_follow_up_set_by" db:"next_follow_up_set_by"`
	FormValues        JSONMap      `json:"form_values" db:"form_values"`
}

// Assignment filter values for lead listing
const (
	FilterAssigned   = "Assigned"
	FilterUnassigned = "Unassigned"
)

// Date window filter values
const (
	DateFilterToday     = "today"
	DateFilterYesterday = "yesterday"
	DateFilterCustom    = "custom"
	DateFilterRange     = "range"
)

// Sort values for lead listing
const (
	SortLeadValueAsc  = "ascleadvalue"
	SortLeadValueDesc = "descleadvalue"
)

// LeadFilters represents lead listing parameters. Unknown enum values are
// ignored rather than rejected.
type LeadFilters struct {
	Pagination
	Priority   string     `json:"priority" form:"priority"`
	Status     string     `json:"status" form:"status"`
	Assignment string     `json:"filterleads" form:"filterleads"`
	AssignedTo *uuid.UUID `json:"assigned_to" form:"assigned_to"`
	SearchText string     `json:"search_text" form:"search_text"`
	Date       string     `json:"date" form:"date"`
	StartDate  *time.Time `json:"start_date" form:"start_date" time_format:"2006-01-02"`
	EndDate    *time.Time `json:"end_date" form:"end_date" time_format:"2006-01-02"`
	SortBy     string     `json:"sort_by" form:"sort_by"`
	OpenOnly   bool       `json:"-" form:"-"`
}

// CreateLeadRequest represents lead creation parameters
type CreateLeadRequest struct {
	Name              string  `json:"name" binding:"required"`
	Email             *string `json:"email" binding:"omitempty,email"`
	Mobile            string  `json:"mobile" binding:"required,mobile"`
	Source            string  `json:"source"`
	Location          *string `json:"location"`
	InterestedProduct *string `json:"interested_product"`
	LeadValue         int64   `json:"lead_value"`
	Whatsapp          *string `json:"whatsapp"`
}

// UpdateLeadRequest represents lead detail updates. FormValues entries are
// merged key-by-key into the stored mapping.
type UpdateLeadRequest struct {
	Name              *string                `json:"name"`
	Email             *string                `json:"email" binding:"omitempty,email"`
	Mobile            *string                `json:"mobile" binding:"omitempty,mobile"`
	Source            *string                `json:"source"`
	Location          *string                `json:"location"`
	InterestedProduct *string                `json:"interested_product"`
	LeadValue         *int64                 `json:"lead_value"`
	Whatsapp          *string                `json:"whatsapp"`
	FormValues        map[string]interface{} `json:"form_values"`
}

type AssignLeadRequest struct {
	StaffID     uuid.UUID `json:"staff_id" binding:"required"`
	IsAssigning bool      `json:"is_assigning"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

type SetFollowUpRequest struct {
	NextFollowUp time.Time `json:"next_follow_up" binding:"required"`
}

// ImportLeadRow is one normalized row of a bulk import
type ImportLeadRow struct {
	Name              string  `json:"name"`
	Mobile            string  `json:"mobile"`
	Email             *string `json:"email"`
	Source            string  `json:"source"`
	Location          *string `json:"location"`
	InterestedProduct *string `json:"interested_product"`
	LeadValue         int64   `json:"lead_value"`
	Whatsapp          *string `json:"whatsapp"`
}

type BulkImportRequest struct {
	Rows []ImportLeadRow `json:"rows" binding:"required,min=1"`
}

type DeleteLeadsRequest struct {
	LeadIDs []uuid.UUID `json:"lead_ids" binding:"required,min=1"`
}

// LeadPage is a single page of role-scoped lead results
type LeadPage struct {
	Leads      []*Lead `json:"leads"`
	Page       int     `json:"current_page"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total_leads"`
}
