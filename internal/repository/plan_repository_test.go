package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/models"
)

func TestPlanRepositoryCreateWithChanges(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO plans").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proposed_changes").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	plan := &models.Plan{FamilyID: "family-1", WeekStart: time.Now().UTC(), Scope: types.JSONText(`{}`)}
	changes := []models.ProposedChange{{
		ChangeType:  models.ChangeTypeAdd,
		Payload:     types.JSONText(`{"learner_id":"learner-1"}`),
		SuggestedBy: "system",
	}}

	err := repo.CreateWithChanges(context.Background(), plan, changes)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, models.PlanStatusDraft, plan.Status)
	assert.Equal(t, plan.ID, changes[0].PlanID)
	assert.NotEmpty(t, changes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryCreateWithChangesRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO plans").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proposed_changes").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	plan := &models.Plan{FamilyID: "family-1", WeekStart: time.Now().UTC(), Scope: types.JSONText(`{}`)}
	changes := []models.ProposedChange{{ChangeType: models.ChangeTypeAdd, Payload: types.JSONText(`{}`), SuggestedBy: "system"}}

	err := repo.CreateWithChanges(context.Background(), plan, changes)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpdateStatusGuardsDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE plans SET status").
		WithArgs(models.PlanStatusApplied, sqlmock.AnyArg(), "plan-1", models.PlanStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 1))

	transitioned, err := repo.UpdateStatus(context.Background(), "plan-1", models.PlanStatusApplied, &now)
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpdateStatusLostRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec("UPDATE plans SET status").
		WithArgs(models.PlanStatusPartial, sqlmock.AnyArg(), "plan-1", models.PlanStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 0))

	transitioned, err := repo.UpdateStatus(context.Background(), "plan-1", models.PlanStatusPartial, nil)
	require.NoError(t, err)
	assert.False(t, transitioned, "a settled plan must not transition again")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpdateChangeApprovalWithPayload(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	payload := []byte(`{"minutes":45}`)
	mock.ExpectExec("UPDATE proposed_changes SET approved").
		WithArgs(true, payload, "change-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateChangeApproval(context.Background(), "change-1", true, payload)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryListChanges(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	rows := sqlmock.NewRows([]string{"id", "plan_id", "change_type", "commitment_id", "payload", "suggested_by", "approved", "applied", "applied_at", "created_at"}).
		AddRow("change-1", "plan-1", "add", nil, []byte(`{}`), "system", false, false, nil, time.Now())
	mock.ExpectQuery("FROM proposed_changes WHERE plan_id").
		WithArgs("plan-1").
		WillReturnRows(rows)

	changes, err := repo.ListChanges(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeTypeAdd, changes[0].ChangeType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
