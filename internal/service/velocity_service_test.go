package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/models"
)

type velocityStoreStub struct {
	records map[string]*models.VelocityRecord
}

func newVelocityStoreStub() *velocityStoreStub {
	return &velocityStoreStub{records: make(map[string]*models.VelocityRecord)}
}

func (s *velocityStoreStub) Find(ctx context.Context, learnerID, subjectID string) (*models.VelocityRecord, error) {
	if r, ok := s.records[learnerID+"|"+subjectID]; ok {
		rec := *r
		return &rec, nil
	}
	return nil, sql.ErrNoRows
}

func (s *velocityStoreStub) Upsert(ctx context.Context, record *models.VelocityRecord) error {
	s.records[record.LearnerID+"|"+record.SubjectID] = record
	return nil
}

type targetStub struct {
	targets []models.CurriculumTarget
	err     error
}

func (s *targetStub) ListTargets(ctx context.Context, learnerIDs []string) ([]models.CurriculumTarget, error) {
	return s.targets, s.err
}

type effortStub struct {
	minutes []models.SubjectMinutes
	err     error
}

func (s *effortStub) MinutesByStatus(ctx context.Context, learnerIDs []string, statuses []models.CommitmentStatus, from, to time.Time) ([]models.SubjectMinutes, error) {
	return s.minutes, s.err
}

type familyStub struct {
	learners []models.Learner
}

func (s *familyStub) ListByFamily(ctx context.Context, familyID string) ([]models.Learner, error) {
	return s.learners, nil
}

func openEndedTarget(learnerID, subjectID string, weekly int) models.CurriculumTarget {
	return models.CurriculumTarget{
		LearnerID:             learnerID,
		SubjectID:             subjectID,
		ExpectedWeeklyMinutes: weekly,
		StartDate:             time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecomputeAppliesEMAWithDefaultOld(t *testing.T) {
	store := newVelocityStoreStub()
	targets := &targetStub{targets: []models.CurriculumTarget{openEndedTarget("learner-1", "math", 100)}}
	// 6 weeks * 100 expected = 600; 300 done = ratio 0.5.
	effort := &effortStub{minutes: []models.SubjectMinutes{{LearnerID: "learner-1", SubjectID: "math", Minutes: 300}}}
	svc := NewVelocityService(store, targets, effort, &familyStub{}, nil)

	update, err := svc.Recompute(context.Background(), "family-1", "learner-1", "math", 6)
	require.NoError(t, err)
	require.NotNil(t, update)

	// 0.7*1.0 + 0.3*0.5 = 0.85
	assert.InDelta(t, 0.85, update.Velocity, 0.0001)
	assert.Equal(t, 1.0, update.OldVelocity)
	assert.InDelta(t, 0.5, update.CompletionRatio, 0.0001)
	assert.Equal(t, 300, update.DoneMinutes)
	assert.Equal(t, 600, update.ExpectedMinutes)
	require.Contains(t, store.records, "learner-1|math")
}

func TestRecomputeClampsToFloor(t *testing.T) {
	store := newVelocityStoreStub()
	store.records["learner-1|math"] = &models.VelocityRecord{
		LearnerID: "learner-1", SubjectID: "math", Velocity: models.VelocityFloor,
	}
	targets := &targetStub{targets: []models.CurriculumTarget{openEndedTarget("learner-1", "math", 100)}}
	effort := &effortStub{} // zero done, ratio 0
	svc := NewVelocityService(store, targets, effort, &familyStub{}, nil)

	update, err := svc.Recompute(context.Background(), "family-1", "learner-1", "math", 6)
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Equal(t, models.VelocityFloor, update.Velocity)
}

func TestRecomputeClampsToCeiling(t *testing.T) {
	store := newVelocityStoreStub()
	store.records["learner-1|math"] = &models.VelocityRecord{
		LearnerID: "learner-1", SubjectID: "math", Velocity: models.VelocityCeiling,
	}
	targets := &targetStub{targets: []models.CurriculumTarget{openEndedTarget("learner-1", "math", 100)}}
	// ratio 5.0 pushes well above the ceiling
	effort := &effortStub{minutes: []models.SubjectMinutes{{LearnerID: "learner-1", SubjectID: "math", Minutes: 3000}}}
	svc := NewVelocityService(store, targets, effort, &familyStub{}, nil)

	update, err := svc.Recompute(context.Background(), "family-1", "learner-1", "math", 6)
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Equal(t, models.VelocityCeiling, update.Velocity)
}

func TestRecomputeSkipsWithoutExpectedMinutes(t *testing.T) {
	store := newVelocityStoreStub()
	svc := NewVelocityService(store, &targetStub{}, &effortStub{}, &familyStub{}, nil)

	update, err := svc.Recompute(context.Background(), "family-1", "learner-1", "math", 6)
	require.NoError(t, err)
	assert.Nil(t, update)
	assert.Empty(t, store.records)
}

func TestRecomputeFamilyWalksEveryPair(t *testing.T) {
	store := newVelocityStoreStub()
	targets := &targetStub{targets: []models.CurriculumTarget{
		openEndedTarget("learner-1", "math", 100),
		openEndedTarget("learner-1", "reading", 60),
		openEndedTarget("learner-2", "math", 80),
	}}
	effort := &effortStub{minutes: []models.SubjectMinutes{
		{LearnerID: "learner-1", SubjectID: "math", Minutes: 600},
		{LearnerID: "learner-2", SubjectID: "math", Minutes: 100},
	}}
	family := &familyStub{learners: []models.Learner{
		{ID: "learner-1", FamilyID: "family-1"},
		{ID: "learner-2", FamilyID: "family-1"},
	}}
	svc := NewVelocityService(store, targets, effort, family, nil)

	updates, err := svc.RecomputeFamily(context.Background(), "family-1", 6)
	require.NoError(t, err)
	require.Len(t, updates, 3)
	assert.Len(t, store.records, 3)

	// Deterministic pair order: learner then subject.
	assert.Equal(t, "math", updates[0].SubjectID)
	assert.Equal(t, "reading", updates[1].SubjectID)
	assert.Equal(t, "learner-2", updates[2].LearnerID)
}
