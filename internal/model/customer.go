package model

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPartiallyPaid PaymentStatus = "partially paid"
	PaymentPaid          PaymentStatus = "paid"
	PaymentUnpaid        PaymentStatus = "unpaid"
)

// Customer is derived from a lead whose status reached "converted".
// At most one customer exists per lead; leaving "converted" removes it.
type Customer struct {
	Base
	LeadID            uuid.UUID     `json:"lead_id" db:"lead_id"`
	Name              string        `json:"name" db:"name"`
	Mobile            string        `json:"mobile" db:"mobile"`
	AlternativeMobile *string       `json:"alternative_mobile" db:"alternative_mobile"`
	Email             *string       `json:"email" db:"email"`
	Payment           PaymentStatus `json:"payment" db:"payment"`
	StatusID          *uuid.UUID    `json:"status_id" db:"status_id"`
	IsActive          bool          `json:"is_active" db:"is_active"`
	CreatedBy         uuid.UUID     `json:"created_by" db:"created_by"`
}
