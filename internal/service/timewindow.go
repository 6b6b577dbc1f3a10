package service

import (
	"sort"
	"time"

	"github.com/nestlearn/planner-api/internal/models"
)

// Interval arithmetic over half-open [start, end) windows. All helpers are
// pure and treat windows with end <= start as empty.

func windowMinutes(w models.TimeWindow) int {
	if !w.End.After(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start) / time.Minute)
}

func windowsOverlap(a, b models.TimeWindow) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// mergeWindows unions overlapping or touching windows, returning a sorted
// disjoint set. Empty windows are dropped.
func mergeWindows(windows []models.TimeWindow) []models.TimeWindow {
	filtered := make([]models.TimeWindow, 0, len(windows))
	for _, w := range windows {
		if w.End.After(w.Start) {
			filtered = append(filtered, w)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Start.Before(filtered[j].Start)
	})

	merged := []models.TimeWindow{filtered[0]}
	for _, w := range filtered[1:] {
		last := &merged[len(merged)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// subtractWindows removes the busy set from each base window and returns the
// remaining free intervals in chronological order.
func subtractWindows(base, busy []models.TimeWindow) []models.TimeWindow {
	busy = mergeWindows(busy)

	var free []models.TimeWindow
	for _, b := range mergeWindows(base) {
		cursor := b.Start
		for _, occupied := range busy {
			if !occupied.End.After(cursor) {
				continue
			}
			if !occupied.Start.Before(b.End) {
				break
			}
			if occupied.Start.After(cursor) {
				free = append(free, models.TimeWindow{Start: cursor, End: occupied.Start})
			}
			if occupied.End.After(cursor) {
				cursor = occupied.End
			}
		}
		if cursor.Before(b.End) {
			free = append(free, models.TimeWindow{Start: cursor, End: b.End})
		}
	}
	return free
}
