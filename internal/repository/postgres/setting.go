package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
)

type settingRepository struct {
	BaseRepository
}

func NewSettingRepository(base BaseRepository) repository.SettingRepository {
	return &settingRepository{base}
}

func (r *settingRepository) FindByTitleAndType(ctx context.Context, title, settingType string) (*model.Setting, error) {
	query := `
		SELECT * FROM settings
		WHERE title = $1 AND type = $2 AND deleted_at IS NULL
	`

	var setting model.Setting
	err := r.db.GetContext(ctx, &setting, query, title, settingType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find setting: %w", err)
	}

	return &setting, nil
}
