package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

type availabilitySource interface {
	ListRange(ctx context.Context, learnerIDs []string, from, to time.Time) ([]models.AvailabilityDay, error)
}

type commitmentSource interface {
	ListOccupying(ctx context.Context, learnerIDs []string, from, to time.Time) ([]models.Commitment, error)
}

type blackoutSource interface {
	ListOverlapping(ctx context.Context, familyID string, from, to time.Time) ([]models.BlackoutPeriod, error)
}

type learnerSource interface {
	FindByID(ctx context.Context, id string) (*models.Learner, error)
}

type dayCache interface {
	Get(ctx context.Context, learnerID string, from, to time.Time) ([]models.AvailabilityDay, bool)
	Put(ctx context.Context, learnerID string, from, to time.Time, days []models.AvailabilityDay)
}

// GapService derives free time intervals from availability, commitments and
// blackout periods. Gaps are recomputed for every call and never persisted.
type GapService struct {
	availability availabilitySource
	commitments  commitmentSource
	blackouts    blackoutSource
	learners     learnerSource
	cache        dayCache
	logger       *zap.Logger
}

// NewGapService constructs the service. Cache may be nil.
func NewGapService(availability availabilitySource, commitments commitmentSource, blackouts blackoutSource, learners learnerSource, cache dayCache, logger *zap.Logger) *GapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GapService{
		availability: availability,
		commitments:  commitments,
		blackouts:    blackouts,
		learners:     learners,
		cache:        cache,
		logger:       logger,
	}
}

// FindGaps returns one learner's free intervals between from and to
// inclusive, ordered by start time, dropping fragments below minGapMinutes.
func (s *GapService) FindGaps(ctx context.Context, learnerID string, from, to time.Time, minGapMinutes int) ([]models.Gap, error) {
	learner, err := s.learners.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read learner")
	}
	return s.FindGapsForLearners(ctx, learner.FamilyID, []string{learnerID}, from, to, minGapMinutes)
}

// FindGapsForLearners is the batch variant used by plan proposal. Any source
// read failure aborts the whole call: a partial gap list would let the packer
// double-book.
func (s *GapService) FindGapsForLearners(ctx context.Context, familyID string, learnerIDs []string, from, to time.Time, minGapMinutes int) ([]models.Gap, error) {
	if len(learnerIDs) == 0 {
		return nil, nil
	}
	if minGapMinutes <= 0 {
		minGapMinutes = 15
	}

	days, err := s.loadDays(ctx, learnerIDs, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read availability")
	}

	blackouts, err := s.blackouts.ListOverlapping(ctx, familyID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read blackouts")
	}

	// Fetch with a generous time span so commitments crossing midnight on
	// the range edges still count as occupied.
	commitments, err := s.commitments.ListOccupying(ctx, learnerIDs, from, to.Add(24*time.Hour))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read commitments")
	}

	busyByLearner := make(map[string][]models.TimeWindow, len(learnerIDs))
	for _, c := range commitments {
		if !c.OccupiesTime() {
			continue
		}
		busyByLearner[c.LearnerID] = append(busyByLearner[c.LearnerID], models.TimeWindow{Start: c.Start, End: c.End})
	}

	var gaps []models.Gap
	for _, day := range days {
		if !day.Teachable() {
			continue
		}
		if coveredByBlackout(blackouts, day.LearnerID, day.Date) {
			continue
		}
		free := subtractWindows(day.Blocks, busyByLearner[day.LearnerID])
		for _, w := range free {
			minutes := windowMinutes(w)
			if minutes < minGapMinutes {
				continue
			}
			gaps = append(gaps, models.Gap{
				LearnerID:        day.LearnerID,
				Date:             day.Date,
				Start:            w.Start,
				End:              w.End,
				AvailableMinutes: minutes,
			})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if !gaps[i].Start.Equal(gaps[j].Start) {
			return gaps[i].Start.Before(gaps[j].Start)
		}
		return gaps[i].LearnerID < gaps[j].LearnerID
	})
	return gaps, nil
}

func (s *GapService) loadDays(ctx context.Context, learnerIDs []string, from, to time.Time) ([]models.AvailabilityDay, error) {
	if s.cache == nil || len(learnerIDs) != 1 {
		return s.availability.ListRange(ctx, learnerIDs, from, to)
	}

	learnerID := learnerIDs[0]
	if days, ok := s.cache.Get(ctx, learnerID, from, to); ok {
		return days, nil
	}
	days, err := s.availability.ListRange(ctx, learnerIDs, from, to)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, learnerID, from, to, days)
	return days, nil
}

func coveredByBlackout(blackouts []models.BlackoutPeriod, learnerID string, date time.Time) bool {
	for _, b := range blackouts {
		if b.Covers(learnerID, date) {
			return true
		}
	}
	return false
}
