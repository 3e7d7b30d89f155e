package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
)

type customerRepository struct {
	BaseRepository
}

func NewCustomerRepository(base BaseRepository) repository.CustomerRepository {
	return &customerRepository{base}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	// lead_id carries a unique constraint: at most one customer per lead
	query := `
		INSERT INTO customers (
			id, lead_id, name, mobile, alternative_mobile, email,
			payment, status_id, is_active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (lead_id) DO NOTHING
	`

	customer.ID = uuid.New()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.LeadID,
		customer.Name,
		customer.Mobile,
		customer.AlternativeMobile,
		customer.Email,
		customer.Payment,
		customer.StatusID,
		customer.IsActive,
		customer.CreatedBy,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *customerRepository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (*model.Customer, error) {
	query := `
		SELECT * FROM customers
		WHERE lead_id = $1 AND deleted_at IS NULL
	`

	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, query, leadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by lead: %w", err)
	}

	return &customer, nil
}

func (r *customerRepository) DeleteByLeadID(ctx context.Context, leadID uuid.UUID) error {
	query := `
		UPDATE customers
		SET deleted_at = NOW()
		WHERE lead_id = $1 AND deleted_at IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, leadID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
