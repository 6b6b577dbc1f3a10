package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nestlearn/planner-api/internal/models"
)

// BlackoutRepository persists blackout periods.
type BlackoutRepository struct {
	db *sqlx.DB
}

// NewBlackoutRepository creates a new blackout repository.
func NewBlackoutRepository(db *sqlx.DB) *BlackoutRepository {
	return &BlackoutRepository{db: db}
}

// Create inserts a blackout period.
func (r *BlackoutRepository) Create(ctx context.Context, blackout *models.BlackoutPeriod) error {
	if blackout.ID == "" {
		blackout.ID = uuid.NewString()
	}
	if blackout.CreatedAt.IsZero() {
		blackout.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO blackout_periods
	(id, family_id, learner_id, starts_on, ends_on, reason, created_at)
	VALUES (:id, :family_id, :learner_id, :starts_on, :ends_on, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, blackout); err != nil {
		return fmt.Errorf("create blackout: %w", err)
	}
	return nil
}

// ListOverlapping returns family blackouts intersecting the [from, to] date
// range. Family-wide rows (null learner_id) are always included.
func (r *BlackoutRepository) ListOverlapping(ctx context.Context, familyID string, from, to time.Time) ([]models.BlackoutPeriod, error) {
	const query = `SELECT id, family_id, learner_id, starts_on, ends_on, reason, created_at
	FROM blackout_periods
	WHERE family_id = $1 AND starts_on <= $2 AND ends_on >= $3
	ORDER BY starts_on`
	var blackouts []models.BlackoutPeriod
	if err := r.db.SelectContext(ctx, &blackouts, query, familyID, to, from); err != nil {
		return nil, fmt.Errorf("list blackouts: %w", err)
	}
	return blackouts, nil
}
