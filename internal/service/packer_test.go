package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/models"
)

func gap(t *testing.T, learnerID, day string, startHour, endHour int) models.Gap {
	t.Helper()
	w := window(t, day, startHour, 0, endHour, 0)
	return models.Gap{
		LearnerID:        learnerID,
		Date:             date(t, day),
		Start:            w.Start,
		End:              w.End,
		AvailableMinutes: windowMinutes(w),
	}
}

func defaultConstraints() PackConstraints {
	return PackConstraints{MaxMinutesPerDay: 240, MaxMinutesPerBlock: 90, MinMinutesPerBlock: 30}
}

func TestPackNeedsSplitsLargeDeficitAcrossGaps(t *testing.T) {
	needs := []Need{{LearnerID: "learner-1", SubjectID: "math", Deficit: 150}}
	gaps := []models.Gap{
		gap(t, "learner-1", "2026-09-07", 9, 11),
		gap(t, "learner-1", "2026-09-08", 9, 11),
	}

	sessions, unmet := packNeeds(needs, gaps, defaultConstraints())
	require.Len(t, sessions, 2)
	assert.Empty(t, unmet)

	// Each gap is 120 minutes but the block cap limits a session to 90, then
	// the remaining 60 lands in the next gap.
	assert.Equal(t, 90, sessions[0].Minutes)
	assert.Equal(t, 60, sessions[1].Minutes)
	assert.Equal(t, sessions[0].Start.Add(90*time.Minute), sessions[0].End)
}

func TestPackNeedsHonorsDailyCap(t *testing.T) {
	needs := []Need{{LearnerID: "learner-1", SubjectID: "math", Deficit: 400}}
	gaps := []models.Gap{
		gap(t, "learner-1", "2026-09-07", 8, 10),
		gap(t, "learner-1", "2026-09-07", 10, 12),
		gap(t, "learner-1", "2026-09-07", 13, 15),
		gap(t, "learner-1", "2026-09-07", 15, 17),
	}

	sessions, unmet := packNeeds(needs, gaps, defaultConstraints())

	total := 0
	for _, s := range sessions {
		total += s.Minutes
	}
	assert.LessOrEqual(t, total, 240)
	require.Len(t, unmet, 1)
	assert.Equal(t, 400-total, unmet[0].Deficit)
}

func TestPackNeedsSkipsSubMinimumPlacement(t *testing.T) {
	// A 50-minute deficit cannot fit a 20-minute gap at all: the whole need
	// stays unmet rather than producing a fragment.
	needs := []Need{{LearnerID: "learner-1", SubjectID: "math", Deficit: 50}}
	gaps := []models.Gap{{
		LearnerID:        "learner-1",
		Date:             date(t, "2026-09-07"),
		Start:            window(t, "2026-09-07", 9, 0, 9, 20).Start,
		End:              window(t, "2026-09-07", 9, 0, 9, 20).End,
		AvailableMinutes: 20,
	}}

	sessions, unmet := packNeeds(needs, gaps, defaultConstraints())
	assert.Empty(t, sessions)
	require.Len(t, unmet, 1)
	assert.Equal(t, 50, unmet[0].Deficit)
}

func TestPackNeedsConsumedGapIsNotReused(t *testing.T) {
	needs := []Need{
		{LearnerID: "learner-1", SubjectID: "math", Deficit: 30},
		{LearnerID: "learner-1", SubjectID: "reading", Deficit: 30},
	}
	gaps := []models.Gap{gap(t, "learner-1", "2026-09-07", 9, 12)}

	sessions, unmet := packNeeds(needs, gaps, defaultConstraints())
	require.Len(t, sessions, 1)
	assert.Equal(t, "math", sessions[0].Need.SubjectID)
	require.Len(t, unmet, 1)
	assert.Equal(t, "reading", unmet[0].SubjectID)
}

func TestPackNeedsHardDueWinsScarceGap(t *testing.T) {
	needs := []Need{
		{LearnerID: "learner-1", SubjectID: "math", Deficit: 120},
		{LearnerID: "learner-1", SubjectID: "", Title: "Exam prep", Deficit: 45, HardDue: true},
	}
	gaps := []models.Gap{gap(t, "learner-1", "2026-09-07", 9, 10)}

	sessions, _ := packNeeds(needs, gaps, defaultConstraints())
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Need.HardDue)
	assert.Equal(t, 45, sessions[0].Minutes)
}

func TestPackNeedsSubtractsAlreadyScheduledMinutes(t *testing.T) {
	needs := []Need{{LearnerID: "learner-1", SubjectID: "math", Deficit: 60, ScheduledMinutes: 60}}
	gaps := []models.Gap{gap(t, "learner-1", "2026-09-07", 9, 12)}

	sessions, unmet := packNeeds(needs, gaps, defaultConstraints())
	assert.Empty(t, sessions)
	assert.Empty(t, unmet)
}

func TestPackNeedsIgnoresOtherLearnersGaps(t *testing.T) {
	needs := []Need{{LearnerID: "learner-1", SubjectID: "math", Deficit: 60}}
	gaps := []models.Gap{gap(t, "learner-2", "2026-09-07", 9, 12)}

	sessions, unmet := packNeeds(needs, gaps, defaultConstraints())
	assert.Empty(t, sessions)
	require.Len(t, unmet, 1)
}

func TestPackNeedsIsDeterministic(t *testing.T) {
	needs := []Need{
		{LearnerID: "learner-1", SubjectID: "math", Deficit: 90},
		{LearnerID: "learner-1", SubjectID: "reading", Deficit: 90},
		{LearnerID: "learner-2", SubjectID: "math", Deficit: 60},
	}
	gaps := []models.Gap{
		gap(t, "learner-1", "2026-09-08", 9, 11),
		gap(t, "learner-1", "2026-09-07", 9, 11),
		gap(t, "learner-2", "2026-09-07", 13, 15),
	}

	first, firstUnmet := packNeeds(needs, gaps, defaultConstraints())
	for i := 0; i < 5; i++ {
		again, againUnmet := packNeeds(needs, gaps, defaultConstraints())
		assert.Equal(t, first, again)
		assert.Equal(t, firstUnmet, againUnmet)
	}
}
