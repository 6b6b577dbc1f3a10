package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

// EMA smoothing factor. Deliberately slow-moving so one unusual week cannot
// swing future targets sharply.
const velocitySmoothing = 0.3

type velocityStore interface {
	Find(ctx context.Context, learnerID, subjectID string) (*models.VelocityRecord, error)
	Upsert(ctx context.Context, record *models.VelocityRecord) error
}

type targetSource interface {
	ListTargets(ctx context.Context, learnerIDs []string) ([]models.CurriculumTarget, error)
}

type effortSource interface {
	MinutesByStatus(ctx context.Context, learnerIDs []string, statuses []models.CommitmentStatus, from, to time.Time) ([]models.SubjectMinutes, error)
}

type familyLearnerSource interface {
	ListByFamily(ctx context.Context, familyID string) ([]models.Learner, error)
}

// keyedMutex serializes work per string key. The EMA read-modify-write is
// not commutative, so concurrent recomputes for the same pair would lose
// updates.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// VelocityService maintains adaptive pace multipliers from completion
// history.
type VelocityService struct {
	velocities velocityStore
	targets    targetSource
	effort     effortSource
	learners   familyLearnerSource

	keys   keyedMutex
	logger *zap.Logger
}

// NewVelocityService constructs the service.
func NewVelocityService(velocities velocityStore, targets targetSource, effort effortSource, learners familyLearnerSource, logger *zap.Logger) *VelocityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VelocityService{
		velocities: velocities,
		targets:    targets,
		effort:     effort,
		learners:   learners,
		logger:     logger,
	}
}

// Recompute updates the pace multiplier for one learner/subject pair from the
// last sinceWeeks full weeks of completions. Returns nil without writing when
// the pair had no expected minutes over the window.
func (s *VelocityService) Recompute(ctx context.Context, familyID, learnerID, subjectID string, sinceWeeks int) (*dto.VelocityUpdate, error) {
	if sinceWeeks <= 0 {
		sinceWeeks = 6
	}

	targets, err := s.targets.ListTargets(ctx, []string{learnerID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read curriculum targets")
	}

	currentWeek := startOfWeek(time.Now())
	since := currentWeek.AddDate(0, 0, -7*sinceWeeks)

	done, err := s.effort.MinutesByStatus(ctx, []string{learnerID},
		[]models.CommitmentStatus{models.CommitmentStatusDone}, since, currentWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read completion minutes")
	}

	doneMinutes := 0
	for _, m := range done {
		if m.LearnerID == learnerID && m.SubjectID == subjectID {
			doneMinutes += m.Minutes
		}
	}

	return s.recomputePair(ctx, familyID, learnerID, subjectID, targets, doneMinutes, sinceWeeks, currentWeek)
}

// RecomputeFamily recomputes every learner/subject pair carrying a curriculum
// target in the family. Pairs with zero expected minutes are skipped.
func (s *VelocityService) RecomputeFamily(ctx context.Context, familyID string, sinceWeeks int) ([]dto.VelocityUpdate, error) {
	if sinceWeeks <= 0 {
		sinceWeeks = 6
	}

	learners, err := s.learners.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read learners")
	}
	if len(learners) == 0 {
		return nil, nil
	}

	learnerIDs := make([]string, 0, len(learners))
	for _, l := range learners {
		learnerIDs = append(learnerIDs, l.ID)
	}

	targets, err := s.targets.ListTargets(ctx, learnerIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read curriculum targets")
	}

	currentWeek := startOfWeek(time.Now())
	since := currentWeek.AddDate(0, 0, -7*sinceWeeks)

	done, err := s.effort.MinutesByStatus(ctx, learnerIDs,
		[]models.CommitmentStatus{models.CommitmentStatusDone}, since, currentWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read completion minutes")
	}
	doneByPair := make(map[[2]string]int, len(done))
	for _, m := range done {
		doneByPair[[2]string{m.LearnerID, m.SubjectID}] += m.Minutes
	}

	type pair struct{ learnerID, subjectID string }
	seen := make(map[pair]struct{})
	pairs := make([]pair, 0, len(targets))
	for _, t := range targets {
		p := pair{t.LearnerID, t.SubjectID}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].learnerID != pairs[j].learnerID {
			return pairs[i].learnerID < pairs[j].learnerID
		}
		return pairs[i].subjectID < pairs[j].subjectID
	})

	updates := make([]dto.VelocityUpdate, 0, len(pairs))
	for _, p := range pairs {
		update, err := s.recomputePair(ctx, familyID, p.learnerID, p.subjectID,
			targets, doneByPair[[2]string{p.learnerID, p.subjectID}], sinceWeeks, currentWeek)
		if err != nil {
			return nil, err
		}
		if update != nil {
			updates = append(updates, *update)
		}
	}
	return updates, nil
}

func (s *VelocityService) recomputePair(ctx context.Context, familyID, learnerID, subjectID string, targets []models.CurriculumTarget, doneMinutes, sinceWeeks int, currentWeek time.Time) (*dto.VelocityUpdate, error) {
	expected := 0
	for i := sinceWeeks; i >= 1; i-- {
		weekStart := currentWeek.AddDate(0, 0, -7*i)
		for _, t := range targets {
			if t.LearnerID == learnerID && t.SubjectID == subjectID && t.ActiveOn(weekStart) {
				expected += t.ExpectedWeeklyMinutes
			}
		}
	}
	if expected == 0 {
		return nil, nil
	}

	unlock := s.keys.lock(learnerID + "|" + subjectID)
	defer unlock()

	oldVelocity := 1.0
	record, err := s.velocities.Find(ctx, learnerID, subjectID)
	switch {
	case err == nil:
		oldVelocity = record.Velocity
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read velocity record")
	}

	ratio := float64(doneMinutes) / float64(expected)
	velocity := models.ClampVelocity((1-velocitySmoothing)*oldVelocity + velocitySmoothing*ratio)
	velocity = math.Round(velocity*1000) / 1000

	updated := &models.VelocityRecord{
		FamilyID:  familyID,
		LearnerID: learnerID,
		SubjectID: subjectID,
		Velocity:  velocity,
	}
	if record != nil {
		updated.ID = record.ID
	}
	if err := s.velocities.Upsert(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store velocity record")
	}

	s.logger.Debug("velocity recomputed",
		zap.String("learner_id", learnerID),
		zap.String("subject_id", subjectID),
		zap.Float64("old", oldVelocity),
		zap.Float64("new", velocity),
		zap.Float64("ratio", ratio),
	)

	return &dto.VelocityUpdate{
		LearnerID:       learnerID,
		SubjectID:       subjectID,
		OldVelocity:     oldVelocity,
		Velocity:        velocity,
		CompletionRatio: ratio,
		DoneMinutes:     doneMinutes,
		ExpectedMinutes: expected,
	}, nil
}
