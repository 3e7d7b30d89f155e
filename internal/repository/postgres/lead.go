package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
)

type leadRepository struct {
	BaseRepository
}

func NewLeadRepository(base BaseRepository) repository.LeadRepository {
	return &leadRepository{base}
}

func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	query := `
		INSERT INTO leads (
			id, name, email, mobile, whatsapp, location, interested_product,
			lead_value, source_id, status, priority, created_by, form_values,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			lead.ID,
			lead.Name,
			lead.Email,
			lead.Mobile,
			lead.Whatsapp,
			lead.Location,
			lead.InterestedProduct,
			lead.LeadValue,
			lead.SourceID,
			lead.Status,
			lead.Priority,
			lead.CreatedBy,
			lead.FormValues,
			lead.CreatedAt,
			lead.UpdatedAt,
		)
		return err
	})
}

func (r *leadRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	query := `
		SELECT * FROM leads
		WHERE id = $1 AND deleted_at IS NULL
	`

	var lead model.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return &lead, nil
}

func (r *leadRepository) ExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leads
			WHERE email = $1 AND id <> $2 AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, exclude); err != nil {
		return false, fmt.Errorf("failed to check lead email: %w", err)
	}
	return exists, nil
}

func (r *leadRepository) ExistsByMobile(ctx context.Context, mobile string, exclude uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leads
			WHERE mobile = $1 AND id <> $2 AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, mobile, exclude); err != nil {
		return false, fmt.Errorf("failed to check lead mobile: %w", err)
	}
	return exists, nil
}

func (r *leadRepository) List(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error) {
	if filters == nil {
		filters = &model.LeadFilters{}
	}
	filters.Normalize()

	where, args, orderBy := buildLeadListQuery(role, userID, filters, time.Now())

	var total int
	countQuery := "SELECT COUNT(*) FROM leads WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM leads WHERE %s %s LIMIT $%d OFFSET $%d",
		where, orderBy, len(args)+1, len(args)+2,
	)
	args = append(args, filters.Limit, filters.Offset())

	leads := []*model.Lead{}
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return &model.LeadPage{
		Leads:      leads,
		Page:       filters.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(filters.Limit))),
		Total:      total,
	}, nil
}

func (r *leadRepository) Update(ctx context.Context, lead *model.Lead) error {
	query := `
		UPDATE leads SET
			name = $1,
			email = $2,
			mobile = $3,
			whatsapp = $4,
			location = $5,
			interested_product = $6,
			lead_value = $7,
			source_id = $8,
			form_values = $9,
			updated_by = $10,
			updated_at = $11
		WHERE id = $12 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		lead.Name,
		lead.Email,
		lead.Mobile,
		lead.Whatsapp,
		lead.Location,
		lead.InterestedProduct,
		lead.LeadValue,
		lead.SourceID,
		lead.FormValues,
		lead.UpdatedBy,
		time.Now(),
		lead.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	return requireRow(result, "lead")
}

func (r *leadRepository) UpdateAssignment(ctx context.Context, leadID uuid.UUID, assignee *uuid.UUID, updatedBy uuid.UUID) error {
	query := `
		UPDATE leads
		SET assigned_to = $1, updated_by = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, assignee, updatedBy, leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead assignment: %w", err)
	}

	return requireRow(result, "lead")
}

func (r *leadRepository) UpdateStatus(ctx context.Context, leadID uuid.UUID, status model.LeadStatus, updatedBy uuid.UUID) error {
	query := `
		UPDATE leads
		SET status = $1, updated_by = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, status, updatedBy, leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	return requireRow(result, "lead")
}

func (r *leadRepository) UpdatePriority(ctx context.Context, leadID uuid.UUID, priority model.LeadPriority) error {
	query := `
		UPDATE leads
		SET priority = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, priority, leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead priority: %w", err)
	}

	return requireRow(result, "lead")
}

func (r *leadRepository) SetNextFollowUp(ctx context.Context, leadID uuid.UUID, at time.Time, setBy uuid.UUID) error {
	query := `
		UPDATE leads
		SET next_follow_up = $1, next_follow_up_set_by = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, at, setBy, leadID)
	if err != nil {
		return fmt.Errorf("failed to set next follow-up: %w", err)
	}

	return requireRow(result, "lead")
}

func (r *leadRepository) InsertMany(ctx context.Context, leads []*model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO leads (
				id, name, email, mobile, whatsapp, location, interested_product,
				lead_value, source_id, status, priority, created_by, form_values,
				created_at, updated_at
			) VALUES (
				:id, :name, :email, :mobile, :whatsapp, :location, :interested_product,
				:lead_value, :source_id, :status, :priority, :created_by, :form_values,
				:created_at, :updated_at
			)
		`
		now := time.Now()
		for _, lead := range leads {
			lead.ID = uuid.New()
			lead.CreatedAt = now
			lead.UpdatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, lead); err != nil {
				return fmt.Errorf("failed to insert lead %s: %w", lead.Mobile, err)
			}
		}
		return nil
	})
}

func (r *leadRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE leads
		SET deleted_at = NOW()
		WHERE id = ANY($1) AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete leads: %w", err)
	}

	return result.RowsAffected()
}

func (r *leadRepository) ListWithFollowUp(ctx context.Context) ([]*model.Lead, error) {
	query := `
		SELECT * FROM leads
		WHERE next_follow_up IS NOT NULL AND deleted_at IS NULL
		ORDER BY next_follow_up ASC
	`

	var leads []*model.Lead
	if err := r.db.SelectContext(ctx, &leads, query); err != nil {
		return nil, fmt.Errorf("failed to list leads with follow-up: %w", err)
	}
	return leads, nil
}
