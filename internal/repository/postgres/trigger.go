package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/repository"
)

type triggerRepository struct {
	BaseRepository
}

func NewTriggerRepository(base BaseRepository) repository.TriggerRepository {
	return &triggerRepository{base}
}

// ClaimOccurrence inserts a fired marker for (lead, kind, day). The primary
// key on those three columns makes the insert race-safe across concurrent
// sweeps and restarts: only the caller whose insert lands claims the
// occurrence.
func (r *triggerRepository) ClaimOccurrence(ctx context.Context, leadID uuid.UUID, kind string, day time.Time) (bool, error) {
	query := `
		INSERT INTO followup_trigger_fires (lead_id, trigger_kind, fire_date, fired_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (lead_id, trigger_kind, fire_date) DO NOTHING
	`

	fireDate := day.Format("2006-01-02")
	result, err := r.db.ExecContext(ctx, query, leadID, kind, fireDate)
	if err != nil {
		return false, fmt.Errorf("failed to claim trigger occurrence: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
