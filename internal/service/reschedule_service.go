package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	"github.com/nestlearn/planner-api/pkg/config"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

const maxSlotsPerDay = 4

type commitmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Commitment, error)
}

type learnerGapFinder interface {
	FindGaps(ctx context.Context, learnerID string, from, to time.Time, minGapMinutes int) ([]models.Gap, error)
}

// RescheduleService offers replacement windows for a blocked commitment:
// same-day options first, then every one of the next lookahead days.
type RescheduleService struct {
	commitments commitmentFinder
	gaps        learnerGapFinder
	cfg         config.RescheduleConfig
	minGap      int
	logger      *zap.Logger
}

// NewRescheduleService constructs the service.
func NewRescheduleService(commitments commitmentFinder, gaps learnerGapFinder, cfg config.RescheduleConfig, minGapMinutes int, logger *zap.Logger) *RescheduleService {
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 7
	}
	if cfg.SlotStepMinutes <= 0 {
		cfg.SlotStepMinutes = 30
	}
	if minGapMinutes <= 0 {
		minGapMinutes = 15
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleService{
		commitments: commitments,
		gaps:        gaps,
		cfg:         cfg,
		minGap:      minGapMinutes,
		logger:      logger,
	}
}

// Suggest returns alternatives for the commitment sized to its duration.
// An empty result is a valid answer: no free time in the lookahead window.
func (s *RescheduleService) Suggest(ctx context.Context, commitmentID, reason string) (*dto.SuggestionsResponse, error) {
	commitment, err := s.commitments.FindByID(ctx, commitmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "commitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read commitment")
	}

	duration := commitment.DurationMinutes()
	if duration <= 0 {
		duration = commitment.EstimatedMinutes
	}
	if duration <= 0 {
		duration = s.minGap
	}

	day := dayOf(commitment.Start)

	sameDayGaps, err := s.gaps.FindGaps(ctx, commitment.LearnerID, day, day, s.minGap)
	if err != nil {
		return nil, err
	}
	sameDay := slotsFromGaps(sameDayGaps, duration, s.cfg.SlotStepMinutes, maxSlotsPerDay)

	laterGaps, err := s.gaps.FindGaps(ctx, commitment.LearnerID,
		day.AddDate(0, 0, 1), day.AddDate(0, 0, s.cfg.LookaheadDays), s.minGap)
	if err != nil {
		return nil, err
	}
	gapsByDate := make(map[string][]models.Gap)
	for _, g := range laterGaps {
		key := dayOf(g.Date).Format(dateLayout)
		gapsByDate[key] = append(gapsByDate[key], g)
	}

	// Every day in the window is checked in order; empty days simply
	// contribute nothing.
	var alternatives []dto.DayAlternatives
	for offset := 1; offset <= s.cfg.LookaheadDays; offset++ {
		date := day.AddDate(0, 0, offset).Format(dateLayout)
		slots := slotsFromGaps(gapsByDate[date], duration, s.cfg.SlotStepMinutes, maxSlotsPerDay)
		if len(slots) == 0 {
			continue
		}
		alternatives = append(alternatives, dto.DayAlternatives{Date: date, Slots: slots})
	}

	return &dto.SuggestionsResponse{
		CommitmentID:    commitmentID,
		Reason:          reason,
		SameDay:         sameDay,
		AlternativeDays: alternatives,
		Recommendations: recommendationsFor(reason, sameDay, alternatives),
	}, nil
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// slotsFromGaps steps candidate start times through each gap on fixed
// boundaries, keeping only windows that fit the full duration.
func slotsFromGaps(gaps []models.Gap, durationMinutes, stepMinutes, limit int) []dto.SlotSuggestion {
	var slots []dto.SlotSuggestion
	span := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(stepMinutes) * time.Minute

	for _, gap := range gaps {
		for start := gap.Start; !start.Add(span).After(gap.End); start = start.Add(step) {
			slots = append(slots, dto.SlotSuggestion{
				Start:   start,
				End:     start.Add(span),
				Minutes: durationMinutes,
			})
			if len(slots) >= limit {
				return slots
			}
		}
	}
	return slots
}

// recommendationsFor templates user-facing guidance by reason. Text only;
// it carries no scheduling effect.
func recommendationsFor(reason string, sameDay []dto.SlotSuggestion, alternatives []dto.DayAlternatives) []string {
	var recs []string

	switch reason {
	case "sick":
		recs = append(recs, "Keep the replacement session light; review work recovers better than new material on a sick day.")
	case "weather":
		recs = append(recs, "Weather delays usually clear within the day, so check the same-day options first.")
	case "family_emergency":
		recs = append(recs, "Spreading the minutes over the next few days avoids one heavy catch-up day.")
	case "travel":
		recs = append(recs, "Flexible sessions can move to the first full day back rather than squeezing around travel.")
	default:
		recs = append(recs, "Pick the earliest slot that fits the family's day; later slots tend to get displaced again.")
	}

	switch {
	case len(sameDay) > 0:
		first := sameDay[0]
		recs = append(recs, fmt.Sprintf("Earliest same-day option starts at %s.", first.Start.Format("15:04")))
	case len(alternatives) > 0:
		recs = append(recs, fmt.Sprintf("No room left today; the next open day is %s.", alternatives[0].Date))
	default:
		recs = append(recs, "No free time found in the lookahead window; consider shortening or splitting the session.")
	}

	return recs
}
