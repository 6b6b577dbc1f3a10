package service

import (
	"sort"
	"time"

	"github.com/nestlearn/planner-api/internal/models"
)

// PackConstraints bound the greedy allocator.
type PackConstraints struct {
	MaxMinutesPerDay   int
	MaxMinutesPerBlock int
	MinMinutesPerBlock int
}

// PackedSession is one placed learning block.
type PackedSession struct {
	Need    Need
	Start   time.Time
	End     time.Time
	Minutes int
}

// packNeeds allocates needs into gaps with a single greedy pass per need in
// priority order. It returns the placed sessions and the needs left with a
// positive remaining deficit.
//
// A gap is consumed by its first placement and never re-split within a run;
// the resulting underutilization is intentional, since re-proposing after an
// apply recomputes gaps from current commitments anyway. Output is
// deterministic: identical inputs produce identical sessions.
func packNeeds(needs []Need, gaps []models.Gap, c PackConstraints) ([]PackedSession, []Need) {
	if c.MaxMinutesPerDay <= 0 {
		c.MaxMinutesPerDay = 240
	}
	if c.MaxMinutesPerBlock <= 0 {
		c.MaxMinutesPerBlock = 90
	}
	if c.MinMinutesPerBlock <= 0 {
		c.MinMinutesPerBlock = 30
	}

	ordered := make([]Need, len(needs))
	copy(ordered, needs)
	sort.SliceStable(ordered, func(i, j int) bool { return lessNeed(ordered[i], ordered[j]) })

	orderedGaps := make([]models.Gap, len(gaps))
	copy(orderedGaps, gaps)
	sort.SliceStable(orderedGaps, func(i, j int) bool {
		if !orderedGaps[i].Start.Equal(orderedGaps[j].Start) {
			return orderedGaps[i].Start.Before(orderedGaps[j].Start)
		}
		return orderedGaps[i].LearnerID < orderedGaps[j].LearnerID
	})

	consumed := make([]bool, len(orderedGaps))
	dayTotals := make(map[string]int)

	var sessions []PackedSession
	var unmet []Need

	for _, need := range ordered {
		remaining := need.Deficit - need.ScheduledMinutes
		if remaining <= 0 {
			continue
		}

		for i, gap := range orderedGaps {
			if remaining <= 0 {
				break
			}
			if consumed[i] || gap.LearnerID != need.LearnerID {
				continue
			}

			dayKey := gap.LearnerID + "|" + gap.Date.Format(dateLayout)
			dayTotal := dayTotals[dayKey]
			if dayTotal >= c.MaxMinutesPerDay {
				continue
			}

			amount := gap.AvailableMinutes
			if c.MaxMinutesPerBlock < amount {
				amount = c.MaxMinutesPerBlock
			}
			if c.MaxMinutesPerDay-dayTotal < amount {
				amount = c.MaxMinutesPerDay - dayTotal
			}
			if remaining < amount {
				amount = remaining
			}
			if amount < c.MinMinutesPerBlock {
				continue
			}

			sessions = append(sessions, PackedSession{
				Need:    need,
				Start:   gap.Start,
				End:     gap.Start.Add(time.Duration(amount) * time.Minute),
				Minutes: amount,
			})
			remaining -= amount
			dayTotals[dayKey] = dayTotal + amount
			consumed[i] = true
		}

		if remaining > 0 {
			leftover := need
			leftover.Deficit = remaining
			unmet = append(unmet, leftover)
		}
	}

	return sessions, unmet
}
