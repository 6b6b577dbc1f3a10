package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nestlearn/planner-api/internal/models"
)

// VelocityRepository persists learner velocity records.
type VelocityRepository struct {
	db *sqlx.DB
}

// NewVelocityRepository creates a new velocity repository.
func NewVelocityRepository(db *sqlx.DB) *VelocityRepository {
	return &VelocityRepository{db: db}
}

// Find loads the velocity record for a learner/subject pair.
func (r *VelocityRepository) Find(ctx context.Context, learnerID, subjectID string) (*models.VelocityRecord, error) {
	const query = `SELECT id, family_id, learner_id, subject_id, velocity, last_updated
	FROM learner_velocity WHERE learner_id = $1 AND subject_id = $2`
	var record models.VelocityRecord
	if err := r.db.GetContext(ctx, &record, query, learnerID, subjectID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByLearners returns velocity records for the given learners.
func (r *VelocityRepository) ListByLearners(ctx context.Context, learnerIDs []string) ([]models.VelocityRecord, error) {
	if len(learnerIDs) == 0 {
		return nil, nil
	}

	const base = `SELECT id, family_id, learner_id, subject_id, velocity, last_updated
	FROM learner_velocity WHERE learner_id IN (?) ORDER BY learner_id, subject_id`

	query, args, err := sqlx.In(base, learnerIDs)
	if err != nil {
		return nil, fmt.Errorf("build velocity query: %w", err)
	}
	query = r.db.Rebind(query)

	var records []models.VelocityRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list velocity records: %w", err)
	}
	return records, nil
}

// Upsert inserts or replaces the record for its learner/subject pair.
func (r *VelocityRepository) Upsert(ctx context.Context, record *models.VelocityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.LastUpdated = time.Now().UTC()

	const query = `INSERT INTO learner_velocity (id, family_id, learner_id, subject_id, velocity, last_updated)
	VALUES (:id, :family_id, :learner_id, :subject_id, :velocity, :last_updated)
	ON CONFLICT (learner_id, subject_id)
	DO UPDATE SET velocity = EXCLUDED.velocity, last_updated = EXCLUDED.last_updated`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert velocity: %w", err)
	}
	return nil
}
