package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

// InsertMany persists one event's notification batch in a single
// transaction. Records are append-only.
func (r *notificationRepository) InsertMany(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO notifications (
				id, recipient_id, title, message, color, is_read, created_at
			) VALUES (
				:id, :recipient_id, :title, :message, :color, :is_read, :created_at
			)
		`
		now := time.Now()
		for _, n := range notifications {
			n.ID = uuid.New()
			n.CreatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, n); err != nil {
				return fmt.Errorf("failed to insert notification: %w", err)
			}
		}
		return nil
	})
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, p model.Pagination) ([]*model.Notification, error) {
	p.Normalize()

	query := `
		SELECT * FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	notifications := []*model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, p.Limit, p.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return requireRow(result, "notification")
}
