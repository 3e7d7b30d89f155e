package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity colors attached to notifications for downstream rendering
const (
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"
)

// Notification is an append-only record owned by its recipient. Only the
// read flag may change after creation.
type Notification struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RecipientID uuid.UUID `json:"recipient_id" db:"recipient_id"`
	Title       string    `json:"title" db:"title"`
	Message     string    `json:"message" db:"message"`
	Color       string    `json:"color" db:"color"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
