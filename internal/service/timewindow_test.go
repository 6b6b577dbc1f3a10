package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/models"
)

func window(t *testing.T, day string, startHour, startMin, endHour, endMin int) models.TimeWindow {
	t.Helper()
	date, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	require.NoError(t, err)
	return models.TimeWindow{
		Start: date.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   date.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

func TestWindowMinutes(t *testing.T) {
	assert.Equal(t, 90, windowMinutes(window(t, "2025-09-01", 9, 0, 10, 30)))
	assert.Equal(t, 0, windowMinutes(window(t, "2025-09-01", 10, 0, 10, 0)))
	// end before start is malformed, not an error
	assert.Equal(t, 0, windowMinutes(window(t, "2025-09-01", 11, 0, 10, 0)))
}

func TestWindowsOverlap(t *testing.T) {
	a := window(t, "2025-09-01", 9, 0, 11, 0)
	assert.True(t, windowsOverlap(a, window(t, "2025-09-01", 10, 0, 12, 0)))
	assert.False(t, windowsOverlap(a, window(t, "2025-09-01", 11, 0, 12, 0)))
	assert.False(t, windowsOverlap(a, window(t, "2025-09-02", 9, 0, 11, 0)))
}

func TestMergeWindowsUnionsOverlaps(t *testing.T) {
	merged := mergeWindows([]models.TimeWindow{
		window(t, "2025-09-01", 10, 0, 11, 0),
		window(t, "2025-09-01", 9, 0, 10, 30),
		window(t, "2025-09-01", 14, 0, 15, 0),
		window(t, "2025-09-01", 12, 0, 12, 0),
	})
	require.Len(t, merged, 2)
	assert.Equal(t, window(t, "2025-09-01", 9, 0, 11, 0), merged[0])
	assert.Equal(t, window(t, "2025-09-01", 14, 0, 15, 0), merged[1])
}

func TestSubtractWindowsSplitsAroundBusy(t *testing.T) {
	free := subtractWindows(
		[]models.TimeWindow{window(t, "2025-09-01", 9, 0, 12, 0)},
		[]models.TimeWindow{window(t, "2025-09-01", 10, 0, 10, 30)},
	)
	require.Len(t, free, 2)
	assert.Equal(t, window(t, "2025-09-01", 9, 0, 10, 0), free[0])
	assert.Equal(t, window(t, "2025-09-01", 10, 30, 12, 0), free[1])
}

func TestSubtractWindowsToleratesOverlappingBusy(t *testing.T) {
	// Overlapping and out-of-order busy intervals must not create phantom
	// free time.
	free := subtractWindows(
		[]models.TimeWindow{window(t, "2025-09-01", 9, 0, 12, 0)},
		[]models.TimeWindow{
			window(t, "2025-09-01", 10, 30, 11, 0),
			window(t, "2025-09-01", 10, 0, 10, 45),
			window(t, "2025-09-01", 10, 15, 10, 40),
		},
	)
	require.Len(t, free, 2)
	assert.Equal(t, window(t, "2025-09-01", 9, 0, 10, 0), free[0])
	assert.Equal(t, window(t, "2025-09-01", 11, 0, 12, 0), free[1])
}

func TestSubtractWindowsBusyCoversWhole(t *testing.T) {
	free := subtractWindows(
		[]models.TimeWindow{window(t, "2025-09-01", 9, 0, 12, 0)},
		[]models.TimeWindow{window(t, "2025-09-01", 8, 0, 13, 0)},
	)
	assert.Empty(t, free)
}

func TestSubtractWindowsNoBusy(t *testing.T) {
	base := window(t, "2025-09-01", 9, 0, 12, 0)
	free := subtractWindows([]models.TimeWindow{base}, nil)
	require.Len(t, free, 1)
	assert.Equal(t, base, free[0])
}

func TestStartOfWeek(t *testing.T) {
	wed := time.Date(2025, 9, 3, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), startOfWeek(wed))

	mon := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, startOfWeek(mon))

	sun := time.Date(2025, 9, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, mon, startOfWeek(sun))
}
