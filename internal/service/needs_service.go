package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

// Planning modes. rebalance covers curriculum deficits only; pack_week and
// what_if additionally fold in the flexible backlog.
const (
	ModeRebalance = "rebalance"
	ModePackWeek  = "pack_week"
	ModeWhatIf    = "what_if"
)

// Need is an outstanding per-subject, per-week minute deficit eligible for
// packing. Request-scoped, rebuilt on every planning run.
type Need struct {
	LearnerID        string
	SubjectID        string
	Week             time.Time
	RequiredMinutes  int
	DoneMinutes      int
	ScheduledMinutes int
	Deficit          int
	Velocity         float64
	IsFlexible       bool
	HardDue          bool
	BacklogID        *string
	Title            string
}

type velocityReader interface {
	ListByLearners(ctx context.Context, learnerIDs []string) ([]models.VelocityRecord, error)
}

type backlogSource interface {
	ListOpenBacklog(ctx context.Context, familyID string) ([]models.BacklogItem, error)
}

// NeedsService combines curriculum targets, velocity multipliers and effort
// aggregates into a ranked deficit list.
type NeedsService struct {
	targets    targetSource
	velocities velocityReader
	effort     effortSource
	backlog    backlogSource
	logger     *zap.Logger
}

// NewNeedsService constructs the service.
func NewNeedsService(targets targetSource, velocities velocityReader, effort effortSource, backlog backlogSource, logger *zap.Logger) *NeedsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NeedsService{
		targets:    targets,
		velocities: velocities,
		effort:     effort,
		backlog:    backlog,
		logger:     logger,
	}
}

// BuildNeeds returns the outstanding needs for the given learners over the
// horizon, sorted by lessNeed. A need is emitted only when its
// velocity-scaled required minutes exceed done minutes for the week.
func (s *NeedsService) BuildNeeds(ctx context.Context, familyID string, learnerIDs []string, weekStart time.Time, horizonWeeks int, mode string) ([]Need, error) {
	if len(learnerIDs) == 0 {
		return nil, nil
	}
	if horizonWeeks <= 0 {
		horizonWeeks = 1
	}

	targets, err := s.targets.ListTargets(ctx, learnerIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read curriculum targets")
	}

	records, err := s.velocities.ListByLearners(ctx, learnerIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read velocity records")
	}
	velocityByPair := make(map[[2]string]float64, len(records))
	for _, r := range records {
		velocityByPair[[2]string{r.LearnerID, r.SubjectID}] = r.Velocity
	}

	horizonEnd := weekStart.AddDate(0, 0, 7*horizonWeeks)
	done, err := s.effort.MinutesByStatus(ctx, learnerIDs,
		[]models.CommitmentStatus{models.CommitmentStatusDone}, weekStart, horizonEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read completion minutes")
	}
	scheduled, err := s.effort.MinutesByStatus(ctx, learnerIDs,
		[]models.CommitmentStatus{models.CommitmentStatusScheduled, models.CommitmentStatusInProgress}, weekStart, horizonEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read scheduled minutes")
	}

	doneByPair := sumByPair(done)
	scheduledByPair := sumByPair(scheduled)

	var needs []Need
	for week := 0; week < horizonWeeks; week++ {
		ws := weekStart.AddDate(0, 0, 7*week)
		for _, t := range targets {
			if !t.ActiveOn(ws) {
				continue
			}
			velocity, ok := velocityByPair[[2]string{t.LearnerID, t.SubjectID}]
			if !ok {
				velocity = 1.0
			}
			required := int(math.Round(float64(t.ExpectedWeeklyMinutes) * velocity))
			doneMinutes := 0
			scheduledMinutes := 0
			if week == 0 {
				// Aggregates cover the whole horizon; attribute them to
				// the first week so later weeks carry full targets.
				doneMinutes = doneByPair[[2]string{t.LearnerID, t.SubjectID}]
				scheduledMinutes = scheduledByPair[[2]string{t.LearnerID, t.SubjectID}]
			}
			deficit := required - doneMinutes
			if deficit <= 0 {
				continue
			}
			needs = append(needs, Need{
				LearnerID:        t.LearnerID,
				SubjectID:        t.SubjectID,
				Week:             ws,
				RequiredMinutes:  required,
				DoneMinutes:      doneMinutes,
				ScheduledMinutes: scheduledMinutes,
				Deficit:          deficit,
				Velocity:         velocity,
			})
		}
	}

	if mode == ModePackWeek || mode == ModeWhatIf {
		backlogNeeds, err := s.backlogNeeds(ctx, familyID, learnerIDs, weekStart)
		if err != nil {
			return nil, err
		}
		needs = append(needs, backlogNeeds...)
	}

	sort.SliceStable(needs, func(i, j int) bool { return lessNeed(needs[i], needs[j]) })
	return needs, nil
}

func (s *NeedsService) backlogNeeds(ctx context.Context, familyID string, learnerIDs []string, weekStart time.Time) ([]Need, error) {
	items, err := s.backlog.ListOpenBacklog(ctx, familyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read backlog items")
	}

	inScope := make(map[string]struct{}, len(learnerIDs))
	for _, id := range learnerIDs {
		inScope[id] = struct{}{}
	}

	var needs []Need
	for _, item := range items {
		// Items without an assigned learner cannot be placed on a calendar.
		if item.LearnerID == nil {
			continue
		}
		if _, ok := inScope[*item.LearnerID]; !ok {
			continue
		}
		if item.EstimatedMinutes <= 0 {
			continue
		}
		item := item
		subjectID := ""
		if item.SubjectID != nil {
			subjectID = *item.SubjectID
		}
		needs = append(needs, Need{
			LearnerID:       *item.LearnerID,
			SubjectID:       subjectID,
			Week:            weekStart,
			RequiredMinutes: item.EstimatedMinutes,
			Deficit:         item.EstimatedMinutes,
			Velocity:        1.0,
			IsFlexible:      true,
			HardDue:         item.DueTS != nil,
			BacklogID:       &item.ID,
			Title:           item.Title,
		})
	}
	return needs, nil
}

// lessNeed is the total order governing who wins scarce gap time: hard-due
// needs first, then larger deficit, then larger required minutes. Used with
// a stable sort so equal needs keep build order.
func lessNeed(a, b Need) bool {
	if a.HardDue != b.HardDue {
		return a.HardDue
	}
	if a.Deficit != b.Deficit {
		return a.Deficit > b.Deficit
	}
	return a.RequiredMinutes > b.RequiredMinutes
}

func sumByPair(entries []models.SubjectMinutes) map[[2]string]int {
	totals := make(map[[2]string]int, len(entries))
	for _, e := range entries {
		totals[[2]string{e.LearnerID, e.SubjectID}] += e.Minutes
	}
	return totals
}
