package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nestlearn/planner-api/internal/models"
)

// LearnerRepository reads learner and subject reference data.
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new learner repository.
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// FindByID loads a learner by id.
func (r *LearnerRepository) FindByID(ctx context.Context, id string) (*models.Learner, error) {
	const query = `SELECT id, family_id, name, grade, created_at FROM learners WHERE id = $1`
	var learner models.Learner
	if err := r.db.GetContext(ctx, &learner, query, id); err != nil {
		return nil, err
	}
	return &learner, nil
}

// ListByFamily returns the family's learners ordered by name.
func (r *LearnerRepository) ListByFamily(ctx context.Context, familyID string) ([]models.Learner, error) {
	const query = `SELECT id, family_id, name, grade, created_at FROM learners WHERE family_id = $1 ORDER BY name`
	var learners []models.Learner
	if err := r.db.SelectContext(ctx, &learners, query, familyID); err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	return learners, nil
}

// ListSubjects returns the family's subjects ordered by name.
func (r *LearnerRepository) ListSubjects(ctx context.Context, familyID string) ([]models.Subject, error) {
	const query = `SELECT id, family_id, name FROM subjects WHERE family_id = $1 ORDER BY name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, familyID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
