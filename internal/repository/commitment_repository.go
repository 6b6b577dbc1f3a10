package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nestlearn/planner-api/internal/models"
)

const commitmentColumns = `id, family_id, learner_id, subject_id, title, start_ts, end_ts,
       status, is_flexible, estimated_minutes, source, created_at, updated_at`

// CommitmentRepository persists calendar commitments.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository creates a new commitment repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

// FindByID loads a commitment by id.
func (r *CommitmentRepository) FindByID(ctx context.Context, id string) (*models.Commitment, error) {
	query := fmt.Sprintf("SELECT %s FROM commitments WHERE id = $1", commitmentColumns)
	var commitment models.Commitment
	if err := r.db.GetContext(ctx, &commitment, query, id); err != nil {
		return nil, err
	}
	return &commitment, nil
}

// ListOccupying returns the given learners' time-occupying commitments whose
// window intersects [from, to).
func (r *CommitmentRepository) ListOccupying(ctx context.Context, learnerIDs []string, from, to time.Time) ([]models.Commitment, error) {
	if len(learnerIDs) == 0 {
		return nil, nil
	}

	base := fmt.Sprintf(`SELECT %s FROM commitments
	WHERE learner_id IN (?) AND status <> ? AND start_ts < ? AND end_ts > ?
	ORDER BY learner_id, start_ts`, commitmentColumns)

	query, args, err := sqlx.In(base, learnerIDs, models.CommitmentStatusCanceled, to, from)
	if err != nil {
		return nil, fmt.Errorf("build commitments query: %w", err)
	}
	query = r.db.Rebind(query)

	var commitments []models.Commitment
	if err := r.db.SelectContext(ctx, &commitments, query, args...); err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	return commitments, nil
}

// MinutesByStatus aggregates commitment minutes per learner/subject pair for
// the given statuses over [from, to). Commitments without a subject are
// excluded.
func (r *CommitmentRepository) MinutesByStatus(ctx context.Context, learnerIDs []string, statuses []models.CommitmentStatus, from, to time.Time) ([]models.SubjectMinutes, error) {
	if len(learnerIDs) == 0 || len(statuses) == 0 {
		return nil, nil
	}

	const base = `SELECT learner_id, subject_id,
       COALESCE(SUM(EXTRACT(EPOCH FROM (end_ts - start_ts)) / 60), 0)::int AS minutes
	FROM commitments
	WHERE learner_id IN (?) AND status IN (?) AND subject_id IS NOT NULL
	  AND start_ts >= ? AND start_ts < ?
	GROUP BY learner_id, subject_id`

	query, args, err := sqlx.In(base, learnerIDs, statuses, from, to)
	if err != nil {
		return nil, fmt.Errorf("build minutes query: %w", err)
	}
	query = r.db.Rebind(query)

	var totals []models.SubjectMinutes
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate commitment minutes: %w", err)
	}
	return totals, nil
}

// Create inserts a new commitment.
func (r *CommitmentRepository) Create(ctx context.Context, commitment *models.Commitment) error {
	now := time.Now().UTC()
	if commitment.ID == "" {
		commitment.ID = uuid.NewString()
	}
	if commitment.Status == "" {
		commitment.Status = models.CommitmentStatusScheduled
	}
	if commitment.CreatedAt.IsZero() {
		commitment.CreatedAt = now
	}
	commitment.UpdatedAt = now

	const query = `INSERT INTO commitments
	(id, family_id, learner_id, subject_id, title, start_ts, end_ts, status, is_flexible, estimated_minutes, source, created_at, updated_at)
	VALUES (:id, :family_id, :learner_id, :subject_id, :title, :start_ts, :end_ts, :status, :is_flexible, :estimated_minutes, :source, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, commitment); err != nil {
		return fmt.Errorf("create commitment: %w", err)
	}
	return nil
}

// UpdateWindow moves a commitment to a new time window.
func (r *CommitmentRepository) UpdateWindow(ctx context.Context, id string, start, end time.Time) error {
	const query = `UPDATE commitments SET start_ts = $1, end_ts = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, start, end, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update commitment window: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update commitment window: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("commitment %s not found", id)
	}
	return nil
}

// Cancel marks a commitment canceled. Canceled rows stay for audit; their
// window no longer occupies calendar time.
func (r *CommitmentRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE commitments SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, models.CommitmentStatusCanceled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("cancel commitment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel commitment: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("commitment %s not found", id)
	}
	return nil
}
