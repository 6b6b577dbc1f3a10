package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

type blackoutWriterStub struct {
	created []*models.BlackoutPeriod
	err     error
}

func (s *blackoutWriterStub) Create(ctx context.Context, blackout *models.BlackoutPeriod) error {
	if s.err != nil {
		return s.err
	}
	blackout.ID = "blackout-1"
	s.created = append(s.created, blackout)
	return nil
}

type learnerDirectoryStub struct {
	byID     map[string]*models.Learner
	byFamily map[string][]models.Learner
}

func (s *learnerDirectoryStub) FindByID(ctx context.Context, id string) (*models.Learner, error) {
	if l, ok := s.byID[id]; ok {
		return l, nil
	}
	return nil, sql.ErrNoRows
}

func (s *learnerDirectoryStub) ListByFamily(ctx context.Context, familyID string) ([]models.Learner, error) {
	return s.byFamily[familyID], nil
}

func newBlackoutServiceForTest(store *blackoutWriterStub, cache *invalidatorSpy) *BlackoutService {
	learners := &learnerDirectoryStub{
		byID: map[string]*models.Learner{
			"learner-1": {ID: "learner-1", FamilyID: "family-1"},
			"learner-2": {ID: "learner-2", FamilyID: "family-1"},
			"learner-9": {ID: "learner-9", FamilyID: "family-9"},
		},
		byFamily: map[string][]models.Learner{
			"family-1": {
				{ID: "learner-1", FamilyID: "family-1"},
				{ID: "learner-2", FamilyID: "family-1"},
			},
		},
	}
	return NewBlackoutService(store, learners, cache, nil, nil)
}

func TestCreateBlackoutForLearner(t *testing.T) {
	store := &blackoutWriterStub{}
	cache := &invalidatorSpy{}
	svc := newBlackoutServiceForTest(store, cache)
	learnerID := "learner-1"

	blackout, err := svc.Create(context.Background(), dto.CreateBlackoutRequest{
		FamilyID:  "family-1",
		LearnerID: &learnerID,
		StartsOn:  "2026-09-07",
		EndsOn:    "2026-09-09",
		Reason:    "sick",
	})
	require.NoError(t, err)

	assert.Equal(t, "blackout-1", blackout.ID)
	assert.Equal(t, date(t, "2026-09-07"), blackout.StartsOn)
	assert.Equal(t, date(t, "2026-09-09"), blackout.EndsOn)
	require.NotNil(t, blackout.LearnerID)
	assert.Equal(t, []string{"learner-1"}, cache.learnerIDs)
}

func TestCreateBlackoutFamilyWideInvalidatesEveryLearner(t *testing.T) {
	store := &blackoutWriterStub{}
	cache := &invalidatorSpy{}
	svc := newBlackoutServiceForTest(store, cache)

	blackout, err := svc.Create(context.Background(), dto.CreateBlackoutRequest{
		FamilyID: "family-1",
		StartsOn: "2026-09-07",
		EndsOn:   "2026-09-07",
		Reason:   "travel",
	})
	require.NoError(t, err)

	assert.Nil(t, blackout.LearnerID)
	assert.Equal(t, []string{"learner-1", "learner-2"}, cache.learnerIDs)
}

func TestCreateBlackoutRejectsBadDates(t *testing.T) {
	svc := newBlackoutServiceForTest(&blackoutWriterStub{}, &invalidatorSpy{})

	_, err := svc.Create(context.Background(), dto.CreateBlackoutRequest{
		FamilyID: "family-1",
		StartsOn: "07/09/2026",
		EndsOn:   "2026-09-07",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateBlackoutRejectsReversedRange(t *testing.T) {
	svc := newBlackoutServiceForTest(&blackoutWriterStub{}, &invalidatorSpy{})

	_, err := svc.Create(context.Background(), dto.CreateBlackoutRequest{
		FamilyID: "family-1",
		StartsOn: "2026-09-09",
		EndsOn:   "2026-09-07",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateBlackoutRejectsForeignLearner(t *testing.T) {
	store := &blackoutWriterStub{}
	svc := newBlackoutServiceForTest(store, &invalidatorSpy{})
	learnerID := "learner-9"

	_, err := svc.Create(context.Background(), dto.CreateBlackoutRequest{
		FamilyID:  "family-1",
		LearnerID: &learnerID,
		StartsOn:  "2026-09-07",
		EndsOn:    "2026-09-07",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestCreateBlackoutUnknownLearnerIsNotFound(t *testing.T) {
	svc := newBlackoutServiceForTest(&blackoutWriterStub{}, &invalidatorSpy{})
	learnerID := "missing"

	_, err := svc.Create(context.Background(), dto.CreateBlackoutRequest{
		FamilyID:  "family-1",
		LearnerID: &learnerID,
		StartsOn:  "2026-09-07",
		EndsOn:    "2026-09-07",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
