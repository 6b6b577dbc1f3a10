package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nestlearn/planner-api/internal/models"
)

// CurriculumRepository reads curriculum targets and backlog items.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a new curriculum repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListTargets returns all targets for the given learners regardless of
// active range. Callers filter by week when walking history.
func (r *CurriculumRepository) ListTargets(ctx context.Context, learnerIDs []string) ([]models.CurriculumTarget, error) {
	if len(learnerIDs) == 0 {
		return nil, nil
	}

	const base = `SELECT id, family_id, learner_id, subject_id, expected_weekly_minutes, start_date, end_date
	FROM curriculum_targets WHERE learner_id IN (?) ORDER BY learner_id, subject_id`

	query, args, err := sqlx.In(base, learnerIDs)
	if err != nil {
		return nil, fmt.Errorf("build targets query: %w", err)
	}
	query = r.db.Rebind(query)

	var targets []models.CurriculumTarget
	if err := r.db.SelectContext(ctx, &targets, query, args...); err != nil {
		return nil, fmt.Errorf("list curriculum targets: %w", err)
	}
	return targets, nil
}

// ListOpenBacklog returns unscheduled backlog items for the family, hard-due
// items first, then oldest first.
func (r *CurriculumRepository) ListOpenBacklog(ctx context.Context, familyID string) ([]models.BacklogItem, error) {
	const query = `SELECT b.id, b.family_id, b.learner_id, b.subject_id, b.title, b.estimated_minutes, b.due_ts, b.created_at
	FROM backlog_items b
	WHERE b.family_id = $1
	  AND NOT EXISTS (
		SELECT 1 FROM commitments c
		WHERE c.source = 'backlog:' || b.id AND c.status <> 'canceled'
	  )
	ORDER BY b.due_ts NULLS LAST, b.created_at`
	var items []models.BacklogItem
	if err := r.db.SelectContext(ctx, &items, query, familyID); err != nil {
		return nil, fmt.Errorf("list backlog items: %w", err)
	}
	return items, nil
}
