package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nestlearn/planner-api/internal/models"
)

const changeColumns = `id, plan_id, change_type, commitment_id, payload, suggested_by,
       approved, applied, applied_at, created_at`

// PlanRepository persists plans and their proposed changes.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// CreateWithChanges inserts a plan and its changes in one transaction.
func (r *PlanRepository) CreateWithChanges(ctx context.Context, plan *models.Plan, changes []models.ProposedChange) error {
	now := time.Now().UTC()
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Status == "" {
		plan.Status = models.PlanStatusDraft
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const planQuery = `INSERT INTO plans (id, family_id, week_start, scope, status, created_at, applied_at)
	VALUES (:id, :family_id, :week_start, :scope, :status, :created_at, :applied_at)`
	if _, err := tx.NamedExecContext(ctx, planQuery, plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}

	const changeQuery = `INSERT INTO proposed_changes
	(id, plan_id, change_type, commitment_id, payload, suggested_by, approved, applied, applied_at, created_at)
	VALUES (:id, :plan_id, :change_type, :commitment_id, :payload, :suggested_by, :approved, :applied, :applied_at, :created_at)`
	for i := range changes {
		change := &changes[i]
		if change.ID == "" {
			change.ID = uuid.NewString()
		}
		change.PlanID = plan.ID
		if change.CreatedAt.IsZero() {
			change.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, changeQuery, change); err != nil {
			return fmt.Errorf("create proposed change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan tx: %w", err)
	}
	return nil
}

// FindByID loads a plan by id.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	const query = `SELECT id, family_id, week_start, scope, status, created_at, applied_at
	FROM plans WHERE id = $1`
	var plan models.Plan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListChanges returns the plan's changes in insertion order.
func (r *PlanRepository) ListChanges(ctx context.Context, planID string) ([]models.ProposedChange, error) {
	query := fmt.Sprintf("SELECT %s FROM proposed_changes WHERE plan_id = $1 ORDER BY created_at, id", changeColumns)
	var changes []models.ProposedChange
	if err := r.db.SelectContext(ctx, &changes, query, planID); err != nil {
		return nil, fmt.Errorf("list proposed changes: %w", err)
	}
	return changes, nil
}

// UpdateChangeApproval stores the approval decision, optionally replacing the
// payload with an edited one.
func (r *PlanRepository) UpdateChangeApproval(ctx context.Context, changeID string, approved bool, payload []byte) error {
	var err error
	if payload != nil {
		const query = `UPDATE proposed_changes SET approved = $1, payload = $2 WHERE id = $3`
		_, err = r.db.ExecContext(ctx, query, approved, payload, changeID)
	} else {
		const query = `UPDATE proposed_changes SET approved = $1 WHERE id = $2`
		_, err = r.db.ExecContext(ctx, query, approved, changeID)
	}
	if err != nil {
		return fmt.Errorf("update change approval: %w", err)
	}
	return nil
}

// MarkChangeApplied records a successful apply for one change.
func (r *PlanRepository) MarkChangeApplied(ctx context.Context, changeID string, commitmentID *string, appliedAt time.Time) error {
	const query = `UPDATE proposed_changes SET applied = TRUE, applied_at = $1, commitment_id = COALESCE($2, commitment_id) WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, appliedAt, commitmentID, changeID); err != nil {
		return fmt.Errorf("mark change applied: %w", err)
	}
	return nil
}

// UpdateStatus transitions the plan out of draft. The status guard keeps the
// transition single-shot under concurrent applies.
func (r *PlanRepository) UpdateStatus(ctx context.Context, planID string, status models.PlanStatus, appliedAt *time.Time) (bool, error) {
	const query = `UPDATE plans SET status = $1, applied_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, status, appliedAt, planID, models.PlanStatusDraft)
	if err != nil {
		return false, fmt.Errorf("update plan status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update plan status: %w", err)
	}
	return rows > 0, nil
}
